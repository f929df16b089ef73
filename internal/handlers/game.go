// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/solitaire/internal/game"
)

// CreateGameHandler handles POST /game/create. The body is a layout mapping pile ids to
// the cards dealt on them, bottom to top.
func CreateGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var layout game.Layout
		if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		g, err := gs.NewGame(layout)
		if err != nil {
			if errors.Is(err, game.ErrInvalidLayout) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			gs.Logger.WithError(err).Error("failed to create game")
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"game_id": g.ID,
			"state":   g.Snapshot(),
		})
	}
}

// GameStateHandler handles GET /game/state/{game_id}.
func GameStateHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gameID, err := gameIDFromPath(r.URL.Path, "/game/state/")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(g.Snapshot())
	}
}

// CloseGameHandler handles DELETE /game/{game_id}.
func CloseGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gameID, err := gameIDFromPath(r.URL.Path, "/game/")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := gs.GameStore.GetGame(gameID); !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		gs.CloseGame(gameID)
		w.WriteHeader(http.StatusNoContent)
	}
}
