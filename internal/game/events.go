// internal/game/events.go
package game

import "github.com/google/uuid"

// GameEventType is an enum-like type for broadcasting game changes.
type GameEventType string

const (
	EventCardMoved    GameEventType = "card_moved"    // a move was committed
	EventMoveUndone   GameEventType = "move_undone"   // the last move was undone
	EventMoveRedone   GameEventType = "move_redone"   // an undone move was applied again
	EventCardFlipped  GameEventType = "card_flipped"  // a card changed face
	EventScoreChanged GameEventType = "score_changed" // the running total changed
	EventSound        GameEventType = "sound"         // an audio cue for the client to play
	EventSyncState    GameEventType = "sync_state"    // full state after load or on connect
	EventError        GameEventType = "error"         // a client request failed; see Message
	EventPong         GameEventType = "pong"          // reply to a client ping
)

// EventCard identifies a card in event payloads. Rank and suit are only filled for
// face-up cards.
type EventCard struct {
	ID     uuid.UUID `json:"id"`
	Code   string    `json:"code,omitempty"`
	FaceUp bool      `json:"faceUp"`
	Pile   string    `json:"pile,omitempty"`
	Order  int       `json:"order"`
}

// GameEvent holds data about an event that can be broadcast to clients in a consistent format.
type GameEvent struct {
	Type   GameEventType `json:"type"`
	GameID uuid.UUID     `json:"gameId"`
	Card   *EventCard    `json:"card,omitempty"`
	Source string        `json:"source,omitempty"`
	Target string        `json:"target,omitempty"`
	Count  int           `json:"count,omitempty"`

	// Payload carries the remaining fields of score and sound events.
	Payload map[string]interface{} `json:"payload,omitempty"`

	State *GameState `json:"state,omitempty"`

	// Message explains an error event.
	Message string `json:"message,omitempty"`
}
