package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session lifecycle events
	EventSessionCreated EventType = "session_created"
	EventPlayerReady    EventType = "player_ready"
	EventGameStarted    EventType = "game_started"
	EventGameCompleted  EventType = "game_completed"
	EventGameAborted    EventType = "game_aborted"
	EventSessionRemoved EventType = "session_removed"

	// Play events
	EventPaddleMoved EventType = "paddle_moved"
	EventPointScored EventType = "point_scored"
	EventStateTick   EventType = "state_tick"

	// Chat events
	EventChatMessage EventType = "chat_message"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	GameID    GameID   // Empty for chat events
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// IsLifecycle returns true for events that change a session's phase or membership
func (e Event) IsLifecycle() bool {
	switch e.Type {
	case EventSessionCreated, EventGameStarted, EventGameCompleted, EventGameAborted, EventSessionRemoved:
		return true
	}
	return false
}

// SessionCreatedPayload contains data for session created events
type SessionCreatedPayload struct {
	Left  PlayerID
	Right PlayerID
}

// PlayerReadyPayload contains data for player ready events
type PlayerReadyPayload struct {
	Side Side
}

// PaddleMovedPayload contains data for paddle moved events
type PaddleMovedPayload struct {
	Side     Side
	Position float64
	Velocity float64
}

// PointScoredPayload contains data for point scored events
type PointScoredPayload struct {
	Scorer Side
	Score  map[Side]int
}

// GameCompletedPayload contains data for game completed events
type GameCompletedPayload struct {
	Winner PlayerID
	Score  map[Side]int
}

// GameAbortedPayload contains data for game aborted events
type GameAbortedPayload struct {
	Reason AbortReason
}

// StateTickPayload carries a full snapshot for streaming clients
type StateTickPayload struct {
	Session *GameSession
}
