// Package historian drains the move journal queue and persists it in batches.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/solitaire/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source yields journal records. cache.RedisJournal implements it; an empty queue is
// reported as redis.Nil.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (models.MoveRecord, error)
}

// Store persists records. database.MoveStore implements it.
type Store interface {
	InsertMoveRecords(ctx context.Context, recs []models.MoveRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Config controls batching and inactivity handling.
type Config struct {
	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration
	Inactivity time.Duration // duration until a game is marked abandoned
	SweepEvery time.Duration
}

// DefaultConfig mirrors the historian's environment defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		PopTimeout: 3 * time.Second,
		Inactivity: 10 * time.Minute,
		SweepEvery: time.Minute,
	}
}

// Service encapsulates the queue + DB logic for capturing moves and marking games
// abandoned once they go quiet.
type Service struct {
	source Source
	store  Store
	cfg    Config
	logger logrus.FieldLogger

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []models.MoveRecord
}

func NewService(source Source, store Store, cfg Config, logger logrus.FieldLogger) *Service {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source: source,
		store:  store,
		cfg:    cfg,
		logger: logger,
		batch:  make([]models.MoveRecord, 0, cfg.BatchSize),
	}
}

// Run starts the read and inactivity loops and blocks until ctx is cancelled. Pending
// records are flushed before returning.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.Info("historian started")
	wg.Wait()
	s.Flush(context.Background())
	s.logger.Info("historian stopped")
}

func (s *Service) readLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		default:
			rec, err := s.source.Pop(ctx, s.cfg.PopTimeout)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.logger.WithError(err).Error("pop move record")
				}
				continue
			}
			s.Append(ctx, rec)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Append adds a record to the in-memory batch and flushes if the threshold is reached.
func (s *Service) Append(ctx context.Context, rec models.MoveRecord) {
	s.lastActivity.Store(rec.GameID, time.Now())

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the current batch in a single transaction. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := make([]models.MoveRecord, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.store.InsertMoveRecords(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("records", len(batch)).Error("flush move records")
		return
	}
	s.logger.WithField("records", len(batch)).Debug("flushed move records")
}

// Pending returns the number of records waiting to be flushed.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Sweep marks every game idle for longer than the inactivity threshold as abandoned.
func (s *Service) Sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		marked, err := s.store.MarkGameAbandoned(ctx, gameID)
		if err != nil {
			s.logger.WithError(err).WithField("game", gameID).Warn("mark game abandoned")
			return true
		}
		s.lastActivity.Delete(gameID)
		if marked {
			s.logger.WithField("game", gameID).Info("marked game abandoned due to inactivity")
		}
		return true
	})
}
