// internal/points/points.go
package points

import "github.com/jason-s-yu/solitaire/internal/models"

// Service holds the running score of a game session. Deltas are committed immediately
// and there is no floor or ceiling; undo is expressed by adding the negated delta.
type Service struct {
	Points *models.Property[int]
}

// NewService returns a Service with a zero total.
func NewService() *Service {
	return &Service{Points: models.NewProperty(0)}
}

// Add applies delta to the total.
func (s *Service) Add(delta int) {
	s.Points.Set(s.Points.Value() + delta)
}

// Total returns the current score.
func (s *Service) Total() int {
	return s.Points.Value()
}

// Reset sets the total back to zero.
func (s *Service) Reset() {
	s.Points.Set(0)
}

// Subscribe registers fn for score changes.
func (s *Service) Subscribe(fn func(old, new int)) (unsubscribe func()) {
	return s.Points.Subscribe(fn)
}
