// internal/database/moves.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/solitaire/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS solitaire_games (
	id         UUID PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'in_progress',
	score      INTEGER NOT NULL DEFAULT 0,
	last_action_index INTEGER NOT NULL DEFAULT 0,
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS solitaire_moves (
	game_id      UUID NOT NULL REFERENCES solitaire_games(id),
	action_index INTEGER NOT NULL,
	action       TEXT NOT NULL,
	card         TEXT NOT NULL,
	cards        INTEGER NOT NULL,
	source_pile  TEXT NOT NULL,
	target_pile  TEXT NOT NULL,
	score_delta  INTEGER NOT NULL,
	revealed     BOOLEAN NOT NULL,
	total        INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);

ALTER TABLE solitaire_games ADD COLUMN IF NOT EXISTS last_action_index INTEGER NOT NULL DEFAULT 0;
`

// EnsureSchema creates the move history tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertMoveRecordTx upserts the game row and inserts the move. The game's score only
// moves forward: a record older than the last one applied leaves the row alone.
// Replayed records are ignored.
func InsertMoveRecordTx(ctx context.Context, tx pgx.Tx, rec models.MoveRecord) error {
	upsertGameQ := `
		INSERT INTO solitaire_games (id, status, score, last_action_index)
		VALUES ($1, 'in_progress', $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET status = 'in_progress', score = EXCLUDED.score,
			last_action_index = EXCLUDED.last_action_index, end_time = NULL
		WHERE solitaire_games.last_action_index < EXCLUDED.last_action_index
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, rec.Total, rec.ActionIndex); err != nil {
		return err
	}

	insertQ := `
		INSERT INTO solitaire_moves (
			game_id, action_index, action, card, cards, source_pile, target_pile,
			score_delta, revealed, total, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err := tx.Exec(ctx, insertQ,
		rec.GameID, rec.ActionIndex, string(rec.Action), rec.Card, rec.Cards,
		rec.SourcePile, rec.TargetPile, rec.ScoreDelta, rec.Revealed, rec.Total,
		time.UnixMilli(rec.Timestamp),
	)
	return err
}

// InsertMoveRecords writes a batch of records in a single transaction.
func InsertMoveRecords(ctx context.Context, pool *pgxpool.Pool, recs []models.MoveRecord) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := InsertMoveRecordTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert move %d of game %s: %w", rec.ActionIndex, rec.GameID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert move records: %w", err)
	}
	return nil
}

// MarkGameAbandoned flags a game that is still in progress as abandoned.
func MarkGameAbandoned(ctx context.Context, pool *pgxpool.Pool, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE solitaire_games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := pool.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to mark game %s abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GameScore returns the stored score of a game and the action index it reflects.
func GameScore(ctx context.Context, pool *pgxpool.Pool, gameID uuid.UUID) (score, actionIndex int, err error) {
	q := `SELECT score, last_action_index FROM solitaire_games WHERE id = $1`
	if err := pool.QueryRow(ctx, q, gameID).Scan(&score, &actionIndex); err != nil {
		return 0, 0, fmt.Errorf("failed to read game %s: %w", gameID, err)
	}
	return score, actionIndex, nil
}

// MoveStore binds the move history queries to a pool.
type MoveStore struct {
	Pool *pgxpool.Pool
}

func (s MoveStore) InsertMoveRecords(ctx context.Context, recs []models.MoveRecord) error {
	return InsertMoveRecords(ctx, s.Pool, recs)
}

func (s MoveStore) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	return MarkGameAbandoned(ctx, s.Pool, gameID)
}
