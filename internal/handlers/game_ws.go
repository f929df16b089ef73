// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/solitaire/internal/game"
	"github.com/jason-s-yu/solitaire/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "solitaire"

// GameMessage represents the structure for incoming WebSocket messages.
type GameMessage struct {
	Type string `json:"type"` // "move", "undo", "redo", "sync" or "ping"

	// Card is the card to move, by id or by code ("QH").
	Card string `json:"card,omitempty"`

	// Pile is the target pile id, e.g. "foundation-0".
	Pile string `json:"pile,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a specific game instance,
// registers the connection for broadcasts and starts the read loop.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract Game ID from URL path: /game/ws/{game_id}
		gameID, err := gameIDFromPath(r.URL.Path, "/game/ws/")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		g, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		h, ok := gs.hubFor(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != Subprotocol {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'solitaire' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl := h.add(c)
		if cl == nil {
			c.Close(websocket.StatusGoingAway, "game closed")
			return
		}
		// Registered before the sync is queued, so every later event follows it.
		g.SyncTo(func(ev game.GameEvent) { sendWsMessage(cl, logger, ev) })

		err = readGameMessages(ctx, cl, g, logger)
		h.remove(cl)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// readGameMessages continuously reads messages from a client's WebSocket connection and
// routes them to the game. It exits upon error or cancellation and returns the read
// error unless the client closed normally.
func readGameMessages(ctx context.Context, cl *client, g *game.Solitaire, logger *logrus.Logger) error {
	for {
		msgType, data, err := cl.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Debugf("WebSocket closed normally in game %s.", g.ID)
				return nil
			}
			if errors.Is(err, context.Canceled) {
				logger.Debugf("WebSocket context canceled in game %s.", g.ID)
				return nil
			}
			logger.Warnf("Error reading from WebSocket in game %s: %v (Status: %d)", g.ID, err, status)
			return err
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d in game %s. Ignoring.", msgType, g.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received in game %s: %v", g.ID, err)
			sendWsError(cl, logger, g, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' in game %s.", msg.Type, g.ID)

		if err := handleGameMessage(cl, g, logger, msg); err != nil {
			sendWsError(cl, logger, g, err.Error())
		}
	}
}

// handleGameMessage applies one client message. Game state changes reach the client
// through the broadcast; only failures are returned.
func handleGameMessage(cl *client, g *game.Solitaire, logger *logrus.Logger, msg GameMessage) error {
	switch msg.Type {
	case "move":
		cardID, err := resolveCard(g, msg.Card)
		if err != nil {
			return err
		}
		return g.Move(cardID, msg.Pile)
	case "undo":
		return g.Undo()
	case "redo":
		return g.Redo()
	case "sync":
		g.SyncTo(func(ev game.GameEvent) { sendWsMessage(cl, logger, ev) })
		return nil
	case "ping":
		sendWsMessage(cl, logger, game.GameEvent{Type: game.EventPong, GameID: g.ID})
		return nil
	}
	return fmt.Errorf("unknown action type: %s", msg.Type)
}

// resolveCard accepts a card id or a card code.
func resolveCard(g *game.Solitaire, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if c, ok := g.CardByCode(ref); ok {
		return c.ID, nil
	}
	return uuid.Nil, fmt.Errorf("%w: %q", game.ErrUnknownCard, ref)
}

// sendWsMessage marshals a message and queues it behind any pending broadcasts.
func sendWsMessage(cl *client, logger *logrus.Logger, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	cl.enqueue(msgBytes)
}

// sendWsError sends an error event to the client.
func sendWsError(cl *client, logger *logrus.Logger, g *game.Solitaire, errorMsg string) {
	sendWsMessage(cl, logger, game.GameEvent{
		Type:    game.EventError,
		GameID:  g.ID,
		Message: errorMsg,
	})
}

func gameIDFromPath(path, prefix string) (uuid.UUID, error) {
	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	if len(parts) < 1 || parts[0] == "" {
		return uuid.Nil, fmt.Errorf("missing game_id in path (%s{game_id})", prefix)
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, errors.New("invalid game_id format")
	}
	return id, nil
}
