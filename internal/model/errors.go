package model

import "errors"

// Common errors used across the application
var (
	// Registry errors
	ErrDuplicateGame  = errors.New("game already has a live session")
	ErrInvalidPlayers = errors.New("a session needs two distinct players")
	ErrUnknownGame    = errors.New("unknown game")
	ErrUnknownPlayer  = errors.New("player is not a participant in this game")
	ErrGameNotFound   = errors.New("game not found")

	// Session errors
	ErrMoveRejected  = errors.New("move rejected")
	ErrSessionClosed = errors.New("session is closed")

	// Settings errors
	ErrInvalidSettings = errors.New("invalid game settings")

	// Chat errors
	ErrChatNotPermitted    = errors.New("chat between these users is not permitted")
	ErrChatGateUnavailable = errors.New("chat permission check unavailable, retry later")
	ErrEmptyMessage        = errors.New("message body is empty")
	ErrNotFriends          = errors.New("users are not friends")

	// Storage errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
