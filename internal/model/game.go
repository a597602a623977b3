package model

import "time"

// GameID uniquely identifies a match
type GameID string

// Phase represents the current state of a game session
type Phase string

const (
	PhaseWaitingForReady Phase = "waiting_for_ready" // Both players must confirm readiness
	PhaseInProgress      Phase = "in_progress"       // Ball in play, moves accepted
	PhaseCompleted       Phase = "completed"         // A player reached the win score
	PhaseAborted         Phase = "aborted"           // Ended without a winner
)

// IsTerminal returns true if the phase accepts no further input
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// AbortReason explains why a session was aborted
type AbortReason string

const (
	AbortReasonNone               AbortReason = ""
	AbortReasonReadyTimeout       AbortReason = "ready_timeout"
	AbortReasonPlayerDisconnected AbortReason = "player_disconnected"
	AbortReasonServerShutdown     AbortReason = "server_shutdown"
)

// Paddle is one player's entry in a session
type Paddle struct {
	PlayerID  PlayerID
	Side      Side
	Position  float64 // Vertical centre, always within [TableMin, TableMax]
	Velocity  float64 // Units per second implied by the last applied move
	Ready     bool
	Connected bool
}

// Ball is the shared projectile
type Ball struct {
	X  float64
	Y  float64
	VX float64
	VY float64
}

// GameSession is a point-in-time copy of a session's authoritative state.
// The live state is owned by the session actor; callers only ever see copies.
type GameSession struct {
	ID          GameID
	Phase       Phase
	AbortReason AbortReason
	Paddles     [2]Paddle // Index 0 is left, 1 is right
	Ball        Ball
	Score       map[Side]int
	Winner      PlayerID // Empty unless completed
	Version     int64    // Incremented on every mutation

	CreatedAt time.Time
	StartedAt time.Time // Zero until in progress
	EndedAt   time.Time // Zero until terminal
}

// Paddle returns the paddle for the given player, or nil if not a participant
func (g *GameSession) Paddle(playerID PlayerID) *Paddle {
	for i := range g.Paddles {
		if g.Paddles[i].PlayerID == playerID {
			return &g.Paddles[i]
		}
	}
	return nil
}

// PaddleFor returns the paddle defending the given side
func (g *GameSession) PaddleFor(side Side) *Paddle {
	if side == SideLeft {
		return &g.Paddles[0]
	}
	return &g.Paddles[1]
}

// HasPlayer returns true if the player participates in this session
func (g *GameSession) HasPlayer(playerID PlayerID) bool {
	return g.Paddle(playerID) != nil
}

// AllReady returns true if both players have confirmed readiness
func (g *GameSession) AllReady() bool {
	return g.Paddles[0].Ready && g.Paddles[1].Ready
}

// Players returns the two participants in side order
func (g *GameSession) Players() []PlayerID {
	return []PlayerID{g.Paddles[0].PlayerID, g.Paddles[1].PlayerID}
}

// Clone returns a deep copy
func (g *GameSession) Clone() *GameSession {
	c := *g
	c.Score = make(map[Side]int, len(g.Score))
	for side, points := range g.Score {
		c.Score[side] = points
	}
	return &c
}
