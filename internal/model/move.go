package model

import "fmt"

// Direction is a paddle movement intent
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// IsValid returns true for the two recognised directions
func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// PaddleMoveInput is one movement command as received from a client
type PaddleMoveInput struct {
	GameID    GameID
	PlayerID  PlayerID
	Direction Direction
	DeltaTime float64 // Seconds since this player's previous applied input
}

// ValidatedMove is a move that passed validation and can no longer fail
type ValidatedMove struct {
	GameID    GameID
	PlayerID  PlayerID
	Side      Side
	Direction Direction
	DeltaTime float64
}

// RejectionReason identifies why a move was refused
type RejectionReason string

const (
	RejectionInvalidDirection RejectionReason = "invalid_direction"
	RejectionInvalidDeltaTime RejectionReason = "invalid_delta_time"
)

// RejectionError reports a malformed move. It matches ErrMoveRejected with errors.Is.
type RejectionError struct {
	Reason RejectionReason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("move rejected: %s", e.Reason)
	}
	return fmt.Sprintf("move rejected: %s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return ErrMoveRejected
}
