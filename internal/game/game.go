// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/solitaire/internal/audio"
	"github.com/jason-s-yu/solitaire/internal/command"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/models"
	"github.com/jason-s-yu/solitaire/internal/points"
	"github.com/sirupsen/logrus"
)

const (
	TableauPiles    = 7
	FoundationPiles = 4

	// journalQueueSize bounds the records waiting to be published; beyond it records are dropped.
	journalQueueSize = 1024
)

var (
	ErrUnknownCard   = errors.New("unknown card")
	ErrUnknownPile   = errors.New("unknown pile")
	ErrInvalidLayout = errors.New("invalid layout")
	ErrGameClosed    = errors.New("game closed")
)

// Journal receives a record for every committed move, undo and redo.
// cache.RedisJournal is the production implementation.
type Journal interface {
	Record(ctx context.Context, rec models.MoveRecord) error
}

// Solitaire holds the entire state for a single Klondike game in memory. Exactly one
// move runs at a time; Mu serialises callers from different connections.
type Solitaire struct {
	ID uuid.UUID

	Stock       *models.Pile
	Waste       *models.Pile
	Tableau     [TableauPiles]*models.Pile
	Foundations [FoundationPiles]*models.Pile

	Points  *points.Service
	Scoring config.Scoring
	Cues    audio.Player
	History *command.History

	// Journal is optional. Records are published asynchronously, one at a time and in
	// ActionIndex order.
	Journal Journal
	Logger  logrus.FieldLogger

	// BroadcastFn is used to send events to connected clients. If nil, no broadcast is done.
	// It is called while Mu is held and must not call back into the game.
	BroadcastFn func(ev GameEvent)

	Mu sync.Mutex

	deck        []*models.Card
	cards       map[uuid.UUID]*models.Card
	byCode      map[string]*models.Card
	piles       []*models.Pile
	pileByID    map[string]*models.Pile
	actionIndex int
	loading     bool
	closed      bool
	journalCh   chan models.MoveRecord
}

// NewSolitaire builds a game with a fresh deck and empty piles. Call Load to deal.
func NewSolitaire(scoring config.Scoring, cues audio.Player, logger logrus.FieldLogger) *Solitaire {
	id, _ := uuid.NewRandom()
	if cues == nil {
		cues = audio.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	g := &Solitaire{
		ID:       id,
		Stock:    models.NewPile(models.Stock, 0),
		Waste:    models.NewPile(models.Waste, 0),
		Points:   points.NewService(),
		Scoring:  scoring,
		Cues:     cues,
		History:  command.NewHistory(),
		Logger:   logger.WithField("game", id),
		cards:    make(map[uuid.UUID]*models.Card),
		byCode:   make(map[string]*models.Card),
		pileByID: make(map[string]*models.Pile),
	}

	g.piles = append(g.piles, g.Stock, g.Waste)
	for i := range g.Tableau {
		g.Tableau[i] = models.NewPile(models.Tableau, i)
		g.piles = append(g.piles, g.Tableau[i])
	}
	for i := range g.Foundations {
		g.Foundations[i] = models.NewPile(models.Foundation, i)
		g.piles = append(g.piles, g.Foundations[i])
	}
	for _, p := range g.piles {
		g.pileByID[p.ID()] = p
	}

	g.deck = models.NewDeck()
	for _, c := range g.deck {
		g.cards[c.ID] = c
		g.byCode[c.Code()] = c
		card := c
		card.FaceUp.Subscribe(func(_, _ bool) {
			g.fireCardFlipped(card)
		})
	}
	g.Points.Subscribe(func(old, new int) {
		g.fireScoreChanged(old, new)
	})
	return g
}

// Load resets every card, the score and the history, then deals the layout.
// Nothing changes if the layout is invalid.
func (g *Solitaire) Load(layout Layout) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return ErrGameClosed
	}

	placements, err := g.resolve(layout)
	if err != nil {
		return err
	}

	g.loading = true
	for _, p := range g.piles {
		p.Clear()
	}
	for _, c := range g.deck {
		c.Reset(models.Point{})
	}
	for _, pl := range placements {
		pl.pile.AddCard(pl.card)
		pl.card.FaceUp.Set(pl.faceUp)
	}
	g.Points.Reset()
	g.History.Clear()
	g.loading = false

	g.Logger.WithField("cards", len(placements)).Info("layout loaded")
	state := g.snapshot()
	g.fireEvent(GameEvent{Type: EventSyncState, State: &state})
	return nil
}

// Move commits a move of the card (and every card above it) to the pile. Legality is
// the caller's responsibility.
func (g *Solitaire) Move(cardID uuid.UUID, pileID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return ErrGameClosed
	}

	card, ok := g.cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	target, ok := g.pileByID[pileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPile, pileID)
	}

	cmd, err := command.NewMoveCard(card, target, g.Points, g.Cues, g.Scoring)
	if err != nil {
		return err
	}
	before := g.Points.Total()
	if err := g.History.Execute(cmd); err != nil {
		return err
	}

	g.afterCommand(models.ActionMove, EventCardMoved, cmd, before)
	return nil
}

// Undo reverses the most recent move.
func (g *Solitaire) Undo() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return ErrGameClosed
	}

	before := g.Points.Total()
	cmd, err := g.History.Undo()
	if err != nil {
		return err
	}
	if mc, ok := cmd.(*command.MoveCard); ok {
		g.afterCommand(models.ActionUndo, EventMoveUndone, mc, before)
	}
	return nil
}

// Redo applies the most recently undone move again.
func (g *Solitaire) Redo() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return ErrGameClosed
	}

	before := g.Points.Total()
	cmd, err := g.History.Redo()
	if err != nil {
		return err
	}
	if mc, ok := cmd.(*command.MoveCard); ok {
		g.afterCommand(models.ActionRedo, EventMoveRedone, mc, before)
	}
	return nil
}

// Close rejects further operations and stops the journal publisher once the records
// already queued have been published.
func (g *Solitaire) Close() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	if g.journalCh != nil {
		close(g.journalCh)
	}
}

// Closed reports whether Close was called.
func (g *Solitaire) Closed() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.closed
}

// Card returns the card with the given id.
func (g *Solitaire) Card(id uuid.UUID) (*models.Card, bool) {
	c, ok := g.cards[id]
	return c, ok
}

// CardByCode returns the card with the given code, e.g. "QH".
func (g *Solitaire) CardByCode(code string) (*models.Card, bool) {
	suit, rank, err := models.ParseCode(code)
	if err != nil {
		return nil, false
	}
	c, ok := g.byCode[rank.Code()+suit.Code()]
	return c, ok
}

// Pile returns the pile with the given id, e.g. "tableau-3".
func (g *Solitaire) Pile(id string) (*models.Pile, bool) {
	p, ok := g.pileByID[id]
	return p, ok
}

// Score returns the running total.
func (g *Solitaire) Score() int {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.Points.Total()
}

// afterCommand logs, journals and broadcasts a committed command.
// Assumes lock is held.
func (g *Solitaire) afterCommand(action models.MoveAction, evType GameEventType, cmd *command.MoveCard, before int) {
	delta := g.Points.Total() - before
	source, target := cmd.Source().ID(), cmd.Target().ID()

	g.Logger.WithFields(logrus.Fields{
		"action": action,
		"card":   cmd.Card().Code(),
		"source": source,
		"target": target,
		"cards":  cmd.Moved(),
		"delta":  delta,
		"total":  g.Points.Total(),
	}).Debug("command applied")

	g.logAction(models.MoveRecord{
		Action:     action,
		Card:       cmd.Card().Code(),
		Cards:      cmd.Moved(),
		SourcePile: source,
		TargetPile: target,
		ScoreDelta: delta,
		Revealed:   cmd.Revealed(),
		Total:      g.Points.Total(),
	})

	g.fireEvent(GameEvent{
		Type:   evType,
		Card:   buildEventCard(cmd.Card()),
		Source: source,
		Target: target,
		Count:  cmd.Moved(),
		Payload: map[string]interface{}{
			"delta": delta,
			"score": g.Points.Total(),
		},
	})
}

// fireEvent broadcasts an event to all connected clients.
// Assumes lock is held.
func (g *Solitaire) fireEvent(ev GameEvent) {
	if g.BroadcastFn == nil {
		return
	}
	ev.GameID = g.ID
	g.BroadcastFn(ev)
}

func (g *Solitaire) fireCardFlipped(c *models.Card) {
	if g.loading {
		return
	}
	g.fireEvent(GameEvent{Type: EventCardFlipped, Card: buildEventCard(c)})
}

func (g *Solitaire) fireScoreChanged(old, new int) {
	if g.loading {
		return
	}
	g.fireEvent(GameEvent{
		Type: EventScoreChanged,
		Payload: map[string]interface{}{
			"delta": new - old,
			"score": new,
		},
	})
}

// logAction stamps the record and queues it for the journal publisher, which is started
// on first use. A full queue drops the record rather than stall the game.
// Assumes lock is held.
func (g *Solitaire) logAction(rec models.MoveRecord) {
	g.actionIndex++
	rec.GameID = g.ID
	rec.ActionIndex = g.actionIndex
	rec.Timestamp = time.Now().UnixMilli()

	if g.Journal == nil || g.closed {
		return
	}
	if g.journalCh == nil {
		g.journalCh = make(chan models.MoveRecord, journalQueueSize)
		go publishRecords(g.Journal, g.journalCh, g.Logger)
	}
	select {
	case g.journalCh <- rec:
	default:
		g.Logger.WithField("action_index", rec.ActionIndex).Warn("journal queue full, dropping move record")
	}
}

// publishRecords sends records to the journal in queue order until ch is closed.
func publishRecords(journal Journal, ch <-chan models.MoveRecord, logger logrus.FieldLogger) {
	for rec := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := journal.Record(ctx, rec)
		cancel()
		if err != nil {
			logger.WithFields(logrus.Fields{
				"action_index": rec.ActionIndex,
				"error":        err,
			}).Warn("failed to publish move record")
		}
	}
}

func buildEventCard(c *models.Card) *EventCard {
	ev := &EventCard{
		ID:     c.ID,
		FaceUp: c.IsFaceUp(),
		Order:  c.Order.Value(),
	}
	if c.IsFaceUp() {
		ev.Code = c.Code()
	}
	if p := c.Pile(); p != nil {
		ev.Pile = p.ID()
	}
	return ev
}
