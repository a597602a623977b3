package storage

import (
	"context"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Session snapshot operations
	SaveSnapshot(ctx context.Context, session *model.GameSession) error
	GetSnapshot(ctx context.Context, id model.GameID) (*model.GameSession, error)
	DeleteSnapshot(ctx context.Context, id model.GameID) error
	ListSnapshots(ctx context.Context) ([]*model.GameSession, error)

	// Chat history operations. Messages are kept per participant, newest first.
	SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error
	ListChatMessages(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.ChatMessage, error)
}
