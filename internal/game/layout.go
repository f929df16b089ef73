// internal/game/layout.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/solitaire/internal/models"
)

// LayoutCard places one card in a Layout.
type LayoutCard struct {
	Code   string `json:"code"`
	FaceUp bool   `json:"faceUp"`
}

// Layout is an explicit deal: pile id to cards, bottom to top. Dealing and shuffling
// happen outside this package; cards not listed stay out of play.
type Layout map[string][]LayoutCard

type placement struct {
	pile   *models.Pile
	card   *models.Card
	faceUp bool
}

// resolve checks the layout against the session's piles and deck and returns the
// placements in deal order. It does not mutate anything.
// Assumes lock is held.
func (g *Solitaire) resolve(layout Layout) ([]placement, error) {
	for id := range layout {
		if g.pileByID[id] == nil {
			return nil, fmt.Errorf("%w: unknown pile %q", ErrInvalidLayout, id)
		}
	}

	used := make(map[*models.Card]string)
	var out []placement

	// deal pile by pile in a fixed order so Order values are deterministic
	for _, pile := range g.piles {
		entries, ok := layout[pile.ID()]
		if !ok {
			continue
		}
		for _, lc := range entries {
			suit, rank, err := models.ParseCode(lc.Code)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
			}
			card := g.byCode[rank.Code()+suit.Code()]
			if prev, dup := used[card]; dup {
				return nil, fmt.Errorf("%w: %s placed in %s and %s", ErrInvalidLayout, card.Code(), prev, pile.ID())
			}
			used[card] = pile.ID()
			out = append(out, placement{pile: pile, card: card, faceUp: lc.FaceUp})
		}
	}

	return out, nil
}
