package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/storage"
)

// chatHistoryLength caps the messages kept per player
const chatHistoryLength = 100

// Storage is an in-memory implementation of the storage interface.
// Snapshots never expire.
type Storage struct {
	mu sync.RWMutex

	snapshots map[model.GameID]*model.GameSession
	chat      map[model.PlayerID][]*model.ChatMessage // Newest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		snapshots: make(map[model.GameID]*model.GameSession),
		chat:      make(map[model.PlayerID][]*model.ChatMessage),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, session *model.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[session.ID] = session.Clone()
	return nil
}

func (s *Storage) GetSnapshot(ctx context.Context, id model.GameID) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.snapshots[id]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

func (s *Storage) ListSnapshots(ctx context.Context) ([]*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*model.GameSession, 0, len(s.snapshots))
	for _, session := range s.snapshots {
		sessions = append(sessions, session.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Chat operations

func (s *Storage) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, playerID := range []model.PlayerID{msg.SenderID, msg.Recipient} {
		stored := *msg
		history := append([]*model.ChatMessage{&stored}, s.chat[playerID]...)
		if len(history) > chatHistoryLength {
			history = history[:chatHistoryLength]
		}
		s.chat[playerID] = history
	}
	return nil
}

func (s *Storage) ListChatMessages(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.chat[playerID]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}

	messages := make([]*model.ChatMessage, len(history))
	for i, msg := range history {
		c := *msg
		messages[i] = &c
	}
	return messages, nil
}
