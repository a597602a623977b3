package response

import (
	"time"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Paddle represents one side of a game in API responses
type Paddle struct {
	PlayerID  string  `json:"player_id"`
	Side      string  `json:"side"`
	Position  float64 `json:"position"`
	Velocity  float64 `json:"velocity"`
	Ready     bool    `json:"ready"`
	Connected bool    `json:"connected"`
}

// PaddleFromModel converts model.Paddle
func PaddleFromModel(p model.Paddle) Paddle {
	return Paddle{
		PlayerID:  string(p.PlayerID),
		Side:      string(p.Side),
		Position:  p.Position,
		Velocity:  p.Velocity,
		Ready:     p.Ready,
		Connected: p.Connected,
	}
}

// Ball represents the ball in API responses
type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Session represents a game session in API responses
type Session struct {
	ID          string         `json:"id"`
	Phase       string         `json:"phase"`
	AbortReason string         `json:"abort_reason,omitempty"`
	Left        Paddle         `json:"left"`
	Right       Paddle         `json:"right"`
	Ball        Ball           `json:"ball"`
	Score       map[string]int `json:"score"`
	Winner      *string        `json:"winner"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
}

// SessionFromModel converts model.GameSession
func SessionFromModel(g *model.GameSession) Session {
	score := make(map[string]int, len(g.Score))
	for side, points := range g.Score {
		score[string(side)] = points
	}

	var winner *string
	if g.Winner != "" {
		w := string(g.Winner)
		winner = &w
	}

	return Session{
		ID:          string(g.ID),
		Phase:       string(g.Phase),
		AbortReason: string(g.AbortReason),
		Left:        PaddleFromModel(g.Paddles[0]),
		Right:       PaddleFromModel(g.Paddles[1]),
		Ball:        Ball{X: g.Ball.X, Y: g.Ball.Y, VX: g.Ball.VX, VY: g.Ball.VY},
		Score:       score,
		Winner:      winner,
		Version:     g.Version,
		CreatedAt:   g.CreatedAt,
		StartedAt:   optionalTime(g.StartedAt),
		EndedAt:     optionalTime(g.EndedAt),
	}
}

// SessionList is the response for listing sessions
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// SessionListFromModel converts a slice of sessions
func SessionListFromModel(sessions []*model.GameSession) SessionList {
	list := SessionList{Sessions: make([]Session, len(sessions))}
	for i, s := range sessions {
		list.Sessions[i] = SessionFromModel(s)
	}
	return list
}

// ReadyTimeout reports the state of a game's ready window
type ReadyTimeout struct {
	GameID  string `json:"game_id"`
	Pending bool   `json:"pending"`
}

// ChatMessage represents a chat message in API responses
type ChatMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// ChatMessageFromModel converts model.ChatMessage
func ChatMessageFromModel(m *model.ChatMessage) ChatMessage {
	return ChatMessage{
		ID:          m.ID,
		SenderID:    string(m.SenderID),
		RecipientID: string(m.Recipient),
		Body:        m.Body,
		SentAt:      m.SentAt,
	}
}

// ChatHistory is the response for a player's chat history
type ChatHistory struct {
	Messages []ChatMessage `json:"messages"`
}

// Event is the wire form of a session or chat event, used by the SSE, WebSocket and NATS outputs
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GameID    string    `json:"game_id,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// EventFromModel converts model.Event, translating the payload to its wire form
func EventFromModel(e model.Event) Event {
	return Event{
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		GameID:    string(e.GameID),
		PlayerID:  string(e.PlayerID),
		Data:      payloadFromModel(e.Payload),
	}
}

func payloadFromModel(payload any) any {
	switch p := payload.(type) {
	case model.SessionCreatedPayload:
		return map[string]string{"left": string(p.Left), "right": string(p.Right)}
	case model.PlayerReadyPayload:
		return map[string]string{"side": string(p.Side)}
	case model.PaddleMovedPayload:
		return map[string]any{"side": string(p.Side), "position": p.Position, "velocity": p.Velocity}
	case model.PointScoredPayload:
		return map[string]any{"scorer": string(p.Scorer), "score": scoreFromModel(p.Score)}
	case model.GameCompletedPayload:
		return map[string]any{"winner": string(p.Winner), "score": scoreFromModel(p.Score)}
	case model.GameAbortedPayload:
		return map[string]string{"reason": string(p.Reason)}
	case model.StateTickPayload:
		return SessionFromModel(p.Session)
	case model.ChatMessage:
		return ChatMessageFromModel(&p)
	default:
		return payload
	}
}

func scoreFromModel(score map[model.Side]int) map[string]int {
	out := make(map[string]int, len(score))
	for side, points := range score {
		out[string(side)] = points
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Health is the response for the health check
type Health struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"live_sessions"`
}
