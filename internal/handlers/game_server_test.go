// internal/handlers/game_server_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/solitaire/internal/audio"
	"github.com/jason-s-yu/solitaire/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedEvent keeps the fields needed to replay events on the client side.
type orderedEvent struct {
	Type    game.GameEventType     `json:"type"`
	Card    *game.EventCard        `json:"card"`
	Payload map[string]interface{} `json:"payload"`
}

func isMoveEvent(typ game.GameEventType) bool {
	return typ == game.EventCardMoved || typ == game.EventMoveUndone || typ == game.EventMoveRedone
}

// TestWebSocketEventsArriveInOrder runs bursts of undo/redo and checks that a client
// applying events in arrival order ends with the server's state.
func TestWebSocketEventsArriveInOrder(t *testing.T) {
	gs := newTestServer(t)
	g, err := gs.NewGame(game.Layout{
		"tableau-0": {{Code: "KS"}, {Code: "QH", FaceUp: true}},
	})
	require.NoError(t, err)
	defer gs.CloseGame(g.ID)

	srv := httptest.NewServer(GameWSHandler(gs.Logger, gs))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws/" + g.ID.String()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")
	readUntil(t, ctx, c, string(game.EventSyncState))

	var events []orderedEvent
	moves := 0
	readMoves := func(want int) {
		for moves < want {
			_, data, err := c.Read(ctx)
			require.NoError(t, err)
			var ev orderedEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			require.NotEqual(t, game.EventError, ev.Type, string(data))
			events = append(events, ev)
			if isMoveEvent(ev.Type) {
				moves++
			}
		}
	}

	send(t, ctx, c, GameMessage{Type: "move", Card: "QH", Pile: "tableau-1"})
	readMoves(1)

	const bursts, cyclesPerBurst = 10, 10
	for b := 0; b < bursts; b++ {
		for i := 0; i < cyclesPerBurst; i++ {
			send(t, ctx, c, GameMessage{Type: "undo"})
			send(t, ctx, c, GameMessage{Type: "redo"})
		}
		readMoves(moves + 2*cyclesPerBurst)
	}

	var sequence []game.GameEventType
	for _, ev := range events {
		if isMoveEvent(ev.Type) {
			sequence = append(sequence, ev.Type)
		}
	}
	require.Len(t, sequence, 1+2*bursts*cyclesPerBurst)
	assert.Equal(t, game.EventCardMoved, sequence[0])
	for i := 1; i < len(sequence); i += 2 {
		require.Equal(t, game.EventMoveUndone, sequence[i], "event %d", i)
		require.Equal(t, game.EventMoveRedone, sequence[i+1], "event %d", i+1)
	}

	// replay flips and score changes the way a renderer would
	ks, ok := g.CardByCode("KS")
	require.True(t, ok)
	faceUp := false
	score := 0.0
	for _, ev := range events {
		switch ev.Type {
		case game.EventCardFlipped:
			if ev.Card != nil && ev.Card.ID == ks.ID {
				faceUp = ev.Card.FaceUp
			}
		case game.EventScoreChanged:
			score = ev.Payload["score"].(float64)
		}
	}
	assert.True(t, ks.IsFaceUp())
	assert.Equal(t, ks.IsFaceUp(), faceUp)
	assert.Equal(t, float64(g.Score()), score)
}

type slowSink struct {
	mu    sync.Mutex
	cues  []audio.Cue
	delay time.Duration
}

func (s *slowSink) Play(_ context.Context, cue audio.Cue, _ float64) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, cue)
	return nil
}

func (s *slowSink) played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cues)
}

func TestCloseGamePlaysQueuedCues(t *testing.T) {
	gs := newTestServer(t)
	sink := &slowSink{delay: 20 * time.Millisecond}
	gs.cueSink = func(*hub) audio.Sink { return sink }

	g, err := gs.NewGame(game.Layout{"waste-0": {{Code: "3H", FaceUp: true}}})
	require.NoError(t, err)
	h, ok := gs.hubFor(g.ID)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		h.dispatcher.PlayCue(audio.CueCardMove, audio.DefaultMoveVolume)
	}
	gs.CloseGame(g.ID)

	assert.Equal(t, 5, sink.played())
}

func TestClosedGameRejectsConnectionsAndMoves(t *testing.T) {
	gs := newTestServer(t)
	g, err := gs.NewGame(game.Layout{"waste-0": {{Code: "3H", FaceUp: true}}})
	require.NoError(t, err)
	h, ok := gs.hubFor(g.ID)
	require.True(t, ok)

	gs.CloseGame(g.ID)

	// a handler that looked the hub up before the close must not join it
	assert.Nil(t, h.add(nil))
	assert.Zero(t, h.count())

	card, ok := g.CardByCode("3H")
	require.True(t, ok)
	assert.ErrorIs(t, g.Move(card.ID, "tableau-0"), game.ErrGameClosed)
	assert.ErrorIs(t, g.Undo(), game.ErrGameClosed)
	assert.True(t, g.Closed())
}
