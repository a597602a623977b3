package model

import "time"

// ChatMessage is a direct message between two users
type ChatMessage struct {
	ID        string
	SenderID  PlayerID
	Recipient PlayerID
	Body      string
	SentAt    time.Time
}
