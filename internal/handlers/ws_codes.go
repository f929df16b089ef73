// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used within the game handlers.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
)
