// internal/game/game_test.go
package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/solitaire/internal/audio"
	"github.com/jason-s-yu/solitaire/internal/command"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []GameEvent
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = nil
}

func (mb *mockBroadcaster) types() []GameEventType {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]GameEventType, len(mb.events))
	for i, ev := range mb.events {
		out[i] = ev.Type
	}
	return out
}

func (mb *mockBroadcaster) last() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.events) == 0 {
		return nil
	}
	return &mb.events[len(mb.events)-1]
}

// mockJournal records move records published by the game.
type mockJournal struct {
	mu      sync.Mutex
	records []models.MoveRecord
}

func (j *mockJournal) Record(_ context.Context, rec models.MoveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *mockJournal) snapshot() []models.MoveRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.MoveRecord, len(j.records))
	copy(out, j.records)
	return out
}

type cueCounter struct {
	mu sync.Mutex
	n  int
}

func (c *cueCounter) PlayCue(audio.Cue, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

// testLayout deals a small position:
//
//	waste-0:      3H (up)
//	tableau-0:    KS (down) QH (up) JC (up)
//	tableau-1:    4S (up)
//	foundation-0: AH (up) 2H (up)
//	stock-0:      9D (down) 8D (down)
func testLayout() Layout {
	return Layout{
		"stock-0":   {{Code: "9D"}, {Code: "8D"}},
		"waste-0":   {{Code: "3H", FaceUp: true}},
		"tableau-0": {{Code: "KS"}, {Code: "QH", FaceUp: true}, {Code: "JC", FaceUp: true}},
		"tableau-1": {{Code: "4S", FaceUp: true}},
		"foundation-0": {
			{Code: "AH", FaceUp: true},
			{Code: "2H", FaceUp: true},
		},
	}
}

func setupTestGame(t *testing.T) (*Solitaire, *mockBroadcaster, *mockJournal) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	g := NewSolitaire(config.DefaultScoring(), nil, logger)
	mb := &mockBroadcaster{}
	j := &mockJournal{}
	g.BroadcastFn = mb.broadcastFn
	g.Journal = j

	require.NoError(t, g.Load(testLayout()))
	mb.clear()
	return g, mb, j
}

func mustCard(t *testing.T, g *Solitaire, code string) *models.Card {
	t.Helper()
	c, ok := g.CardByCode(code)
	require.True(t, ok, "card %s", code)
	return c
}

func codes(p *models.Pile) []string {
	var out []string
	for _, c := range p.Cards() {
		out = append(out, c.Code())
	}
	return out
}

func TestLoadPlacesCards(t *testing.T) {
	g, _, _ := setupTestGame(t)

	assert.Equal(t, []string{"KS", "QH", "JC"}, codes(g.Tableau[0]))
	assert.Equal(t, []string{"3H"}, codes(g.Waste))
	assert.Equal(t, []string{"9D", "8D"}, codes(g.Stock))
	assert.Equal(t, 0, g.Score())
	assert.False(t, mustCard(t, g, "KS").IsFaceUp())
	assert.True(t, mustCard(t, g, "8D").IsDrawable())

	unplaced := mustCard(t, g, "7C")
	assert.Nil(t, unplaced.Pile())
}

func TestLoadRejectsInvalidLayouts(t *testing.T) {
	g, _, _ := setupTestGame(t)

	bad := []Layout{
		{"tableau-9": {{Code: "AS"}}},
		{"tableau-0": {{Code: "ZZ"}}},
		{"tableau-0": {{Code: "AS"}}, "tableau-1": {{Code: "AS"}}},
	}
	for _, layout := range bad {
		assert.ErrorIs(t, g.Load(layout), ErrInvalidLayout)
	}
	// nothing changed
	assert.Equal(t, []string{"KS", "QH", "JC"}, codes(g.Tableau[0]))
}

func TestLoadResetsScoreAndHistory(t *testing.T) {
	g, mb, _ := setupTestGame(t)
	require.NoError(t, g.Move(mustCard(t, g, "3H").ID, "foundation-0"))
	require.NotZero(t, g.Score())

	require.NoError(t, g.Load(testLayout()))
	assert.Equal(t, 0, g.Score())
	assert.False(t, g.History.CanUndo())
	last := mb.last()
	require.NotNil(t, last)
	assert.Equal(t, EventSyncState, last.Type)
	require.NotNil(t, last.State)
	assert.Equal(t, g.ID, last.State.GameID)
}

func TestMoveRunRevealsAndUndoes(t *testing.T) {
	g, mb, j := setupTestGame(t)
	scoring := g.Scoring
	before := g.Snapshot()

	require.NoError(t, g.Move(mustCard(t, g, "QH").ID, "tableau-1"))
	assert.Equal(t, []string{"KS"}, codes(g.Tableau[0]))
	assert.Equal(t, []string{"4S", "QH", "JC"}, codes(g.Tableau[1]))
	assert.True(t, mustCard(t, g, "KS").IsFaceUp())
	assert.Equal(t, scoring.PointsTurnOverTableauCard, g.Score())

	assert.Contains(t, mb.types(), EventCardFlipped)
	assert.Contains(t, mb.types(), EventScoreChanged)
	last := mb.last()
	require.NotNil(t, last)
	assert.Equal(t, EventCardMoved, last.Type)
	assert.Equal(t, "tableau-0", last.Source)
	assert.Equal(t, "tableau-1", last.Target)
	assert.Equal(t, 2, last.Count)

	require.NoError(t, g.Undo())
	after := g.Snapshot()
	before.CanRedo, after.CanRedo = false, false
	assert.Equal(t, before, after)
	assert.Equal(t, EventMoveUndone, mb.last().Type)

	require.Eventually(t, func() bool { return len(j.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	recs := j.snapshot()
	byIndex := map[int]models.MoveRecord{}
	for _, r := range recs {
		assert.Equal(t, g.ID, r.GameID)
		byIndex[r.ActionIndex] = r
	}
	assert.Equal(t, models.ActionMove, byIndex[1].Action)
	assert.True(t, byIndex[1].Revealed)
	assert.Equal(t, scoring.PointsTurnOverTableauCard, byIndex[1].ScoreDelta)
	assert.Equal(t, models.ActionUndo, byIndex[2].Action)
	assert.Equal(t, -scoring.PointsTurnOverTableauCard, byIndex[2].ScoreDelta)
	assert.Equal(t, 0, byIndex[2].Total)
}

func TestMoveScoringAndRedo(t *testing.T) {
	g, _, _ := setupTestGame(t)
	scoring := g.Scoring

	require.NoError(t, g.Move(mustCard(t, g, "3H").ID, "foundation-0"))
	assert.Equal(t, scoring.PointsWasteToFoundation, g.Score())

	require.NoError(t, g.Move(mustCard(t, g, "3H").ID, "tableau-1"))
	assert.Equal(t, scoring.PointsWasteToFoundation+scoring.PointsFoundationToTableau, g.Score())

	require.NoError(t, g.Undo())
	require.NoError(t, g.Undo())
	assert.Equal(t, 0, g.Score())
	assert.Equal(t, []string{"3H"}, codes(g.Waste))

	require.NoError(t, g.Redo())
	assert.Equal(t, scoring.PointsWasteToFoundation, g.Score())
	assert.True(t, g.Snapshot().CanRedo)
}

func TestMoveErrors(t *testing.T) {
	g, mb, _ := setupTestGame(t)

	err := g.Move(mustCard(t, g, "7C").ID, "tableau-0")
	assert.ErrorIs(t, err, command.ErrCardNotInPile)

	err = g.Move(mustCard(t, g, "3H").ID, "nowhere-1")
	assert.ErrorIs(t, err, ErrUnknownPile)

	err = g.Move(models.NewCard(models.Spade, models.Ace).ID, "tableau-0")
	assert.ErrorIs(t, err, ErrUnknownCard)

	err = g.Move(mustCard(t, g, "3H").ID, "waste-0")
	assert.ErrorIs(t, err, command.ErrSamePile)

	assert.ErrorIs(t, g.Undo(), command.ErrNothingToUndo)
	assert.ErrorIs(t, g.Redo(), command.ErrNothingToRedo)
	assert.Empty(t, mb.types(), "rejected operations broadcast nothing")
}

func TestMovePlaysCueOnExecuteAndUndo(t *testing.T) {
	cues := &cueCounter{}
	g := NewSolitaire(config.DefaultScoring(), cues, nil)
	require.NoError(t, g.Load(testLayout()))

	require.NoError(t, g.Move(mustCard(t, g, "4S").ID, "tableau-2"))
	require.NoError(t, g.Undo())
	assert.Equal(t, 2, cues.n)
}

func TestSnapshotHidesFaceDownCards(t *testing.T) {
	g, _, _ := setupTestGame(t)
	st := g.Snapshot()

	var tableau0 ObfPile
	for _, p := range st.Piles {
		if p.ID == "tableau-0" {
			tableau0 = p
		}
	}
	require.Len(t, tableau0.Cards, 3)
	assert.False(t, tableau0.Cards[0].Known)
	assert.Empty(t, tableau0.Cards[0].Code)
	assert.True(t, tableau0.Cards[1].Known)
	assert.Equal(t, "QH", tableau0.Cards[1].Code)
	assert.Equal(t, 10, tableau0.Cards[1].Value)
	assert.True(t, tableau0.Cards[2].Moveable)

	data := EventBytes(GameEvent{Type: EventSyncState, State: &st})
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, string(EventSyncState), decoded["type"])
}

func TestGameStore(t *testing.T) {
	s := NewGameStore()
	g := NewSolitaire(config.DefaultScoring(), nil, nil)
	s.AddGame(g)

	got, ok := s.GetGame(g.ID)
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Equal(t, 1, s.Len())

	s.DeleteGame(g.ID)
	_, ok = s.GetGame(g.ID)
	assert.False(t, ok)
}

func TestJournalRecordsArriveInOrder(t *testing.T) {
	g, _, j := setupTestGame(t)

	require.NoError(t, g.Move(mustCard(t, g, "QH").ID, "tableau-1"))
	const cycles = 300
	for i := 0; i < cycles; i++ {
		require.NoError(t, g.Undo())
		require.NoError(t, g.Redo())
	}

	want := 1 + 2*cycles
	require.Eventually(t, func() bool { return len(j.snapshot()) == want }, 2*time.Second, 5*time.Millisecond)
	recs := j.snapshot()
	for i, r := range recs {
		require.Equal(t, i+1, r.ActionIndex, "record %d", i)
	}
	last := recs[len(recs)-1]
	assert.Equal(t, models.ActionRedo, last.Action)
	assert.Equal(t, g.Score(), last.Total)
}

func TestCloseRejectsOperations(t *testing.T) {
	g, _, j := setupTestGame(t)
	require.NoError(t, g.Move(mustCard(t, g, "3H").ID, "foundation-0"))

	g.Close()
	g.Close()
	assert.True(t, g.Closed())

	assert.ErrorIs(t, g.Move(mustCard(t, g, "4S").ID, "tableau-2"), ErrGameClosed)
	assert.ErrorIs(t, g.Undo(), ErrGameClosed)
	assert.ErrorIs(t, g.Redo(), ErrGameClosed)
	assert.ErrorIs(t, g.Load(testLayout()), ErrGameClosed)

	// records queued before the close are still published
	require.Eventually(t, func() bool { return len(j.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestSyncToRunsUnderLock(t *testing.T) {
	g, _, _ := setupTestGame(t)

	var got GameEvent
	g.SyncTo(func(ev GameEvent) {
		assert.False(t, g.Mu.TryLock(), "game lock is held")
		got = ev
	})
	assert.Equal(t, EventSyncState, got.Type)
	require.NotNil(t, got.State)
	assert.Equal(t, g.ID, got.State.GameID)
}
