package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PileKind is the categorical role of a pile.
type PileKind uint8

const (
	Stock PileKind = iota
	Waste
	Tableau
	Foundation
)

var pileKindNames = [...]string{"stock", "waste", "tableau", "foundation"}

func (k PileKind) String() string {
	if int(k) >= len(pileKindNames) {
		return fmt.Sprintf("PileKind(%d)", uint8(k))
	}
	return pileKindNames[k]
}

// Pile is an ordered sequence of cards, index 0 is the bottom and the last index is the top.
type Pile struct {
	Kind  PileKind
	Index int

	cards []*Card
}

// NewPile returns an empty pile. Index distinguishes piles of the same kind.
func NewPile(kind PileKind, index int) *Pile {
	return &Pile{Kind: kind, Index: index}
}

// ID returns a stable identifier such as "tableau-3" or "stock-0".
func (p *Pile) ID() string {
	return p.Kind.String() + "-" + strconv.Itoa(p.Index)
}

// ParsePileID splits an identifier produced by ID back into kind and index.
func ParsePileID(id string) (PileKind, int, error) {
	name, idx, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid pile id %q", id)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return 0, 0, fmt.Errorf("invalid pile id %q", id)
	}
	for k, n := range pileKindNames {
		if n == name {
			return PileKind(k), i, nil
		}
	}
	return 0, 0, fmt.Errorf("invalid pile id %q", id)
}

func (p *Pile) IsStock() bool      { return p.Kind == Stock }
func (p *Pile) IsWaste() bool      { return p.Kind == Waste }
func (p *Pile) IsTableau() bool    { return p.Kind == Tableau }
func (p *Pile) IsFoundation() bool { return p.Kind == Foundation }

// Len returns the number of cards in the pile.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the pile's cards, bottom to top.
func (p *Pile) Cards() []*Card {
	out := make([]*Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// TopCard returns the top card, or nil if the pile is empty.
func (p *Pile) TopCard() *Card {
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[len(p.cards)-1]
}

// BottomCard returns the bottom card, or nil if the pile is empty.
func (p *Pile) BottomCard() *Card {
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[0]
}

// IndexOf returns the position of c in the pile, or -1.
func (p *Pile) IndexOf(c *Card) int {
	for i, pc := range p.cards {
		if pc == c {
			return i
		}
	}
	return -1
}

// Contains reports whether c is a member of the pile.
func (p *Pile) Contains(c *Card) bool {
	return c != nil && c.pile == p && p.IndexOf(c) >= 0
}

// AddCard puts c on top of the pile, detaching it from any pile it was in first.
func (p *Pile) AddCard(c *Card) {
	if c.pile != nil {
		c.pile.RemoveCard(c)
	}
	c.pile = p
	p.cards = append(p.cards, c)
	c.Order.Set(len(p.cards) - 1)
}

// AddCards puts cards on top of the pile in the given order.
func (p *Pile) AddCards(cards []*Card) {
	for _, c := range cards {
		p.AddCard(c)
	}
}

// RemoveCard takes c out of the pile. It is a no-op if c is not a member.
func (p *Pile) RemoveCard(c *Card) {
	idx := p.IndexOf(c)
	if idx < 0 {
		return
	}
	p.cards = append(p.cards[:idx], p.cards[idx+1:]...)
	if c.pile == p {
		c.pile = nil
	}
	p.reindex(idx)
}

// RemoveCards takes every card in cards out of the pile.
func (p *Pile) RemoveCards(cards []*Card) {
	for _, c := range cards {
		p.RemoveCard(c)
	}
}

// SplitAt returns the run from c (inclusive) to the top, in pile order, without
// mutating the pile. It returns nil when c is not in the pile.
func (p *Pile) SplitAt(c *Card) []*Card {
	idx := p.IndexOf(c)
	if idx < 0 {
		return nil
	}
	out := make([]*Card, len(p.cards)-idx)
	copy(out, p.cards[idx:])
	return out
}

// Clear empties the pile and drops the cards' back references. Face and order are
// left alone; use Card.Reset for that.
func (p *Pile) Clear() {
	for _, c := range p.cards {
		if c.pile == p {
			c.pile = nil
		}
	}
	p.cards = nil
}

func (p *Pile) reindex(from int) {
	for i := from; i < len(p.cards); i++ {
		p.cards[i].Order.Set(i)
	}
}

func (p *Pile) String() string {
	return fmt.Sprintf("%s (%d cards)", p.ID(), len(p.cards))
}
