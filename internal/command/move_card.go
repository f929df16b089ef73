// internal/command/move_card.go
package command

import (
	"fmt"

	"github.com/jason-s-yu/solitaire/internal/audio"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/models"
)

// Scorer receives score deltas. points.Service satisfies it.
type Scorer interface {
	Add(delta int)
}

// MoveCard moves a card, and every card above it, from the pile it is in to a target
// pile. Legality is decided by the caller before the command is built.
type MoveCard struct {
	card    *models.Card
	source  *models.Pile
	target  *models.Pile
	scorer  Scorer
	cues    audio.Player
	scoring config.Scoring

	executed bool
	revealed bool // Execute flipped the card exposed on a tableau source
	moved    int
}

// NewMoveCard captures the card's current pile as the source. The command must be
// executed before the card is moved by anything else.
func NewMoveCard(card *models.Card, target *models.Pile, scorer Scorer, cues audio.Player, scoring config.Scoring) (*MoveCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if target == nil {
		return nil, ErrNilTarget
	}
	if scorer == nil {
		return nil, ErrNilScorer
	}
	source := card.Pile()
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotInPile, card)
	}
	if source == target {
		return nil, fmt.Errorf("%w: %s already in %s", ErrSamePile, card, target.ID())
	}
	if cues == nil {
		cues = audio.Nop{}
	}
	return &MoveCard{
		card:    card,
		source:  source,
		target:  target,
		scorer:  scorer,
		cues:    cues,
		scoring: scoring,
	}, nil
}

// ScoreDelta returns the points awarded for moving a card between piles of the given
// kinds. Pairs outside the four scoring transitions are worth nothing.
func ScoreDelta(source, target models.PileKind, s config.Scoring) int {
	switch {
	case source == models.Waste && target == models.Tableau:
		return s.PointsWasteToTableau
	case source == models.Waste && target == models.Foundation:
		return s.PointsWasteToFoundation
	case source == models.Tableau && target == models.Foundation:
		return s.PointsTableauToFoundation
	case source == models.Foundation && target == models.Tableau:
		return s.PointsFoundationToTableau
	}
	return 0
}

func (m *MoveCard) Execute() error {
	if m.executed {
		return ErrAlreadyExecuted
	}
	if !m.source.Contains(m.card) {
		return fmt.Errorf("%w: %s not in %s", ErrStaleSource, m.card, m.source.ID())
	}

	if m.source.TopCard() == m.card {
		m.target.AddCard(m.card)
		m.moved = 1
	} else {
		cards := m.source.SplitAt(m.card)
		m.source.RemoveCards(cards)
		m.target.AddCards(cards)
		m.moved = len(cards)
	}

	m.scorer.Add(ScoreDelta(m.source.Kind, m.target.Kind, m.scoring))
	m.cues.PlayCue(audio.CueCardMove, audio.DefaultMoveVolume)

	m.revealed = false
	if m.source.IsTableau() {
		below := m.source.TopCard()
		if below != nil && !below.IsFaceUp() {
			below.Flip()
			m.revealed = true
			m.scorer.Add(m.scoring.PointsTurnOverTableauCard)
		}
	}

	m.executed = true
	return nil
}

// Undo reverses Execute in inverse order: hide the revealed card, take back the move
// score, play the cue again and move the cards back.
func (m *MoveCard) Undo() error {
	if !m.executed {
		return ErrNotExecuted
	}
	if !m.target.Contains(m.card) {
		return fmt.Errorf("%w: %s not in %s", ErrStaleTarget, m.card, m.target.ID())
	}

	if m.revealed {
		top := m.source.TopCard()
		if top != nil && top.IsFaceUp() {
			top.Flip()
			m.scorer.Add(-m.scoring.PointsTurnOverTableauCard)
		}
	}

	m.scorer.Add(-ScoreDelta(m.source.Kind, m.target.Kind, m.scoring))
	m.cues.PlayCue(audio.CueCardMove, audio.DefaultMoveVolume)

	if m.target.TopCard() == m.card {
		m.source.AddCard(m.card)
	} else {
		cards := m.target.SplitAt(m.card)
		m.target.RemoveCards(cards)
		m.source.AddCards(cards)
	}

	m.executed = false
	m.revealed = false
	return nil
}

func (m *MoveCard) Card() *models.Card   { return m.card }
func (m *MoveCard) Source() *models.Pile { return m.source }
func (m *MoveCard) Target() *models.Pile { return m.target }

// Executed reports whether the command is currently applied.
func (m *MoveCard) Executed() bool { return m.executed }

// Revealed reports whether the last Execute flipped the card exposed on the source.
func (m *MoveCard) Revealed() bool { return m.revealed }

// Moved returns the size of the run moved by the last Execute.
func (m *MoveCard) Moved() int { return m.moved }

// Delta returns the total score change applied by the current Execute, including the
// reveal bonus.
func (m *MoveCard) Delta() int {
	d := ScoreDelta(m.source.Kind, m.target.Kind, m.scoring)
	if m.revealed {
		d += m.scoring.PointsTurnOverTableauCard
	}
	return d
}

func (m *MoveCard) String() string {
	return fmt.Sprintf("move %s: %s -> %s", m.card, m.source.ID(), m.target.ID())
}
