// internal/models/move_record.go
package models

import "github.com/google/uuid"

// MoveAction names the kind of journal entry.
type MoveAction string

const (
	ActionMove MoveAction = "move"
	ActionUndo MoveAction = "undo"
	ActionRedo MoveAction = "redo"
)

// MoveRecord is one journal entry for a committed move, undo or redo. It holds the
// minimal info needed by the historian service.
type MoveRecord struct {
	GameID      uuid.UUID  `json:"game_id"`
	ActionIndex int        `json:"action_index"`
	Action      MoveAction `json:"action"`
	Card        string     `json:"card"`
	Cards       int        `json:"cards"` // size of the moved run
	SourcePile  string     `json:"source_pile"`
	TargetPile  string     `json:"target_pile"`
	ScoreDelta  int        `json:"score_delta"`
	Revealed    bool       `json:"revealed"`
	Total       int        `json:"total"`
	Timestamp   int64      `json:"timestamp"`
}
