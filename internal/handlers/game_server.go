// internal/handlers/game_server.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/solitaire/internal/audio"
	"github.com/jason-s-yu/solitaire/internal/config"
	"github.com/jason-s-yu/solitaire/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	// cueQueueSize bounds the per-game audio queue; cues beyond it are dropped.
	cueQueueSize = 32

	// clientQueueSize bounds the messages waiting for one connection. A client that
	// falls this far behind is disconnected.
	clientQueueSize = 256

	// cueDrainTimeout is how long CloseGame waits for queued cues to be played.
	cueDrainTimeout = time.Second

	writeTimeout = 3 * time.Second
)

// GameServer is a high-level struct that holds a reference to a GameStore and the
// connections watching each game.
type GameServer struct {
	GameStore *game.GameStore
	Scoring   config.Scoring
	Journal   game.Journal // optional
	Logger    *logrus.Logger

	// cueSink builds the audio sink of a new game. Defaults to broadcasting sound events.
	cueSink func(h *hub) audio.Sink

	mu   sync.Mutex
	hubs map[uuid.UUID]*hub
}

func NewGameServer(scoring config.Scoring, journal game.Journal, logger *logrus.Logger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GameServer{
		GameStore: game.NewGameStore(),
		Scoring:   scoring,
		Journal:   journal,
		Logger:    logger,
		cueSink:   func(h *hub) audio.Sink { return audio.SinkFunc(h.playSound) },
		hubs:      make(map[uuid.UUID]*hub),
	}
}

// client is one websocket connection. A single writer goroutine drains send, so the
// connection sees messages in the order they were queued.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger logrus.FieldLogger
}

func newClient(conn *websocket.Conn, logger logrus.FieldLogger) *client {
	cl := &client{
		conn:   conn,
		send:   make(chan []byte, clientQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go cl.writeLoop()
	return cl
}

func (cl *client) writeLoop() {
	for {
		select {
		case <-cl.done:
			return
		case data := <-cl.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := cl.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				cl.logger.WithError(err).Warn("failed to write websocket message")
				cl.stop(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// enqueue never blocks. A full queue disconnects the client.
func (cl *client) enqueue(data []byte) {
	select {
	case <-cl.done:
		return
	default:
	}
	select {
	case cl.send <- data:
	default:
		cl.logger.Warn("client too slow, closing connection")
		cl.stop(websocket.StatusPolicyViolation, "client too slow")
	}
}

// stop ends the writer and closes the connection in the background, since the close
// handshake can take a while and callers may hold the game lock.
func (cl *client) stop(code websocket.StatusCode, reason string) {
	cl.once.Do(func() {
		close(cl.done)
		go cl.conn.Close(code, reason)
	})
}

// hub fans events of one game out to its websocket connections and owns the game's
// audio dispatcher.
type hub struct {
	gameID     uuid.UUID
	logger     logrus.FieldLogger
	dispatcher *audio.Dispatcher
	audioDone  chan struct{}
	cancel     context.CancelFunc

	mu      sync.Mutex
	closed  bool
	clients map[*websocket.Conn]*client
}

// add registers a connection. It returns nil once the hub is closed.
func (h *hub) add(c *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	cl := newClient(c, h.logger)
	h.clients[c] = cl
	return cl
}

func (h *hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl.conn)
	h.mu.Unlock()
	cl.stop(websocket.StatusNormalClosure, "")
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast marshals the event and queues it for every connection. It is called while
// the game lock is held, so it must not touch the game.
func (h *hub) broadcast(ev game.GameEvent) {
	data := game.EventBytes(ev)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cl := range h.clients {
		cl.enqueue(data)
	}
}

// close marks the hub closed and disconnects every client.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c, cl := range h.clients {
		cl.stop(websocket.StatusGoingAway, "game closed")
		delete(h.clients, c)
	}
}

// playSound forwards an audio cue to the clients, which do the actual playback.
func (h *hub) playSound(_ context.Context, cue audio.Cue, volume float64) error {
	h.broadcast(game.GameEvent{
		Type:   game.EventSound,
		GameID: h.gameID,
		Payload: map[string]interface{}{
			"cue":    string(cue),
			"volume": volume,
		},
	})
	return nil
}

// NewGame creates a game, deals the layout and registers it. The game's audio
// dispatcher runs until CloseGame.
func (gs *GameServer) NewGame(layout game.Layout) (*game.Solitaire, error) {
	h := &hub{
		clients:   make(map[*websocket.Conn]*client),
		audioDone: make(chan struct{}),
	}

	g := game.NewSolitaire(gs.Scoring, nil, gs.Logger)
	h.gameID = g.ID
	h.logger = gs.Logger.WithField("game", g.ID)
	h.dispatcher = audio.NewDispatcher(gs.cueSink(h), cueQueueSize, h.logger)
	g.Cues = h.dispatcher
	g.BroadcastFn = h.broadcast
	if gs.Journal != nil {
		g.Journal = gs.Journal
	}

	if err := g.Load(layout); err != nil {
		h.dispatcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.audioDone)
		h.dispatcher.Run(ctx)
	}()

	gs.mu.Lock()
	gs.hubs[g.ID] = h
	gs.mu.Unlock()
	gs.GameStore.AddGame(g)

	h.logger.Info("game created")
	return g, nil
}

// CloseGame removes the game and rejects further moves on it, plays the cues still
// queued and closes its connections.
func (gs *GameServer) CloseGame(id uuid.UUID) {
	g, hasGame := gs.GameStore.GetGame(id)
	gs.GameStore.DeleteGame(id)
	if hasGame {
		g.Close()
	}

	gs.mu.Lock()
	h, ok := gs.hubs[id]
	delete(gs.hubs, id)
	gs.mu.Unlock()
	if !ok {
		return
	}

	h.dispatcher.Close()
	select {
	case <-h.audioDone:
	case <-time.After(cueDrainTimeout):
		h.logger.Warn("audio queue not drained before close")
	}
	h.cancel()

	h.close()
	h.logger.Info("game closed")
}

func (gs *GameServer) hubFor(id uuid.UUID) (*hub, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	h, ok := gs.hubs[id]
	return h, ok
}
