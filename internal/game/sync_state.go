// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
)

// ObfCard holds minimal info for a card. Face-down cards only expose their id so a
// client cannot read the deal.
type ObfCard struct {
	ID       uuid.UUID `json:"id"`
	Known    bool      `json:"known"`
	Code     string    `json:"code,omitempty"`
	Rank     string    `json:"rank,omitempty"`
	Suit     string    `json:"suit,omitempty"`
	Value    int       `json:"value,omitempty"`
	Order    int       `json:"order"`
	Moveable bool      `json:"moveable"`
	Drawable bool      `json:"drawable"`
}

// ObfPile is one pile in a GameState, bottom to top.
type ObfPile struct {
	ID    string    `json:"id"`
	Kind  string    `json:"kind"`
	Cards []ObfCard `json:"cards"`
}

// GameState is returned by Snapshot.
type GameState struct {
	GameID  uuid.UUID `json:"game_id"`
	Score   int       `json:"score"`
	Moves   int       `json:"moves"`
	CanUndo bool      `json:"canUndo"`
	CanRedo bool      `json:"canRedo"`
	Piles   []ObfPile `json:"piles"`
}

// Snapshot generates the client-facing state of the game.
func (g *Solitaire) Snapshot() GameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.snapshot()
}

// SyncTo hands a sync_state event to fn while the game lock is held, so no event fired
// by a later operation can be delivered before it.
func (g *Solitaire) SyncTo(fn func(GameEvent)) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	state := g.snapshot()
	fn(GameEvent{Type: EventSyncState, GameID: g.ID, State: &state})
}

// Assumes lock is held.
func (g *Solitaire) snapshot() GameState {
	st := GameState{
		GameID:  g.ID,
		Score:   g.Points.Total(),
		Moves:   g.History.Len(),
		CanUndo: g.History.CanUndo(),
		CanRedo: g.History.CanRedo(),
		Piles:   make([]ObfPile, 0, len(g.piles)),
	}
	for _, p := range g.piles {
		op := ObfPile{
			ID:    p.ID(),
			Kind:  p.Kind.String(),
			Cards: make([]ObfCard, 0, p.Len()),
		}
		for _, c := range p.Cards() {
			oc := ObfCard{
				ID:       c.ID,
				Order:    c.Order.Value(),
				Moveable: c.IsMoveable(),
				Drawable: c.IsDrawable(),
			}
			if c.IsFaceUp() {
				oc.Known = true
				oc.Code = c.Code()
				oc.Rank = c.Rank.String()
				oc.Suit = c.Suit.String()
				oc.Value = c.Value()
			}
			op.Cards = append(op.Cards, oc)
		}
		st.Piles = append(st.Piles, op)
	}
	return st
}
