// internal/audio/audio.go
package audio

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cue identifies a sound effect.
type Cue string

const (
	// CueCardMove is played whenever cards change pile, on both execute and undo.
	CueCardMove Cue = "sfx_draw"
)

// DefaultMoveVolume is the volume used for CueCardMove.
const DefaultMoveVolume = 0.5

// Player accepts cues without acknowledgement. Implementations must not block and
// never report playback failures to the caller.
type Player interface {
	PlayCue(cue Cue, volume float64)
}

// Sink performs the actual playback for a Dispatcher.
type Sink interface {
	Play(ctx context.Context, cue Cue, volume float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, cue Cue, volume float64) error

func (f SinkFunc) Play(ctx context.Context, cue Cue, volume float64) error {
	return f(ctx, cue, volume)
}

// Nop discards every cue.
type Nop struct{}

func (Nop) PlayCue(Cue, float64) {}

type request struct {
	cue    Cue
	volume float64
}

// Dispatcher queues cues and plays them on its own goroutine. When the queue is full
// the cue is dropped.
type Dispatcher struct {
	sink   Sink
	logger logrus.FieldLogger
	queue  chan request

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewDispatcher returns a Dispatcher with the given queue capacity. Call Run to start playback.
func NewDispatcher(sink Sink, capacity int, logger logrus.FieldLogger) *Dispatcher {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan request, capacity),
	}
}

// PlayCue enqueues the cue. Volume is clamped to [0,1].
func (d *Dispatcher) PlayCue(cue Cue, volume float64) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- request{cue: cue, volume: volume}:
	default:
		d.dropped++
		d.logger.WithField("cue", cue).Debug("audio queue full, dropping cue")
	}
}

// Dropped returns how many cues were discarded because the queue was full.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Run plays queued cues until ctx is cancelled or Close is called.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.sink.Play(ctx, req.cue, req.volume); err != nil {
				d.logger.WithFields(logrus.Fields{
					"cue":   req.cue,
					"error": err,
				}).Warn("audio playback failed")
			}
		}
	}
}

// Close stops accepting cues. Queued cues are still drained by Run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}
