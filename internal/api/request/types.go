package request

// CreateGameRequest is the request body for creating a game session.
// GameID is generated when omitted.
type CreateGameRequest struct {
	GameID  string `json:"game_id,omitempty"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
}

// PlayerRequest is the request body for ready and disconnect
type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

// MoveRequest is the request body for a paddle move. DeltaTime is in seconds.
// GameID is optional and must match the path when present.
type MoveRequest struct {
	GameID    string   `json:"game_id,omitempty"`
	PlayerID  string   `json:"player_id"`
	Direction string   `json:"direction"`
	DeltaTime *float64 `json:"delta_time"`
}

// SendChatRequest is the request body for sending a chat message
type SendChatRequest struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// SocketFrame is a command sent by a client over the game WebSocket
type SocketFrame struct {
	Type      string   `json:"type"` // "move" or "ready"
	Direction string   `json:"direction,omitempty"`
	DeltaTime *float64 `json:"delta_time,omitempty"`
}

// Socket frame types
const (
	FrameMove  = "move"
	FrameReady = "ready"
)
