package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/storage"
)

// MaxBodyLength is the longest accepted message body in bytes
const MaxBodyLength = 2000

// Service sends gated direct messages between players
type Service struct {
	gate      *Gate
	storage   storage.Storage
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

// NewService creates a new chat Service
func NewService(
	gate *Gate,
	store storage.Storage,
	publisher events.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		gate:      gate,
		storage:   store,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With(slog.String("component", "chat")),
	}
}

// Send delivers a message if the gate allows it
func (s *Service) Send(ctx context.Context, sender, recipient model.PlayerID, body string) (*model.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, model.ErrEmptyMessage
	}
	body = truncateBody(body, MaxBodyLength)
	if sender == "" || recipient == "" || sender == recipient {
		return nil, model.ErrInvalidPlayers
	}

	if err := s.gate.Authorize(ctx, sender, recipient); err != nil {
		s.logger.Info("chat message refused",
			slog.String("sender", string(sender)),
			slog.String("recipient", string(recipient)),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	msg := &model.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  sender,
		Recipient: recipient,
		Body:      body,
		SentAt:    s.clock.Now(),
	}

	if err := s.storage.SaveChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}

	s.publisher.Publish(ctx, model.Event{
		Type:      model.EventChatMessage,
		Timestamp: msg.SentAt,
		PlayerID:  recipient,
		Payload:   *msg,
	})

	s.logger.Debug("chat message sent",
		slog.String("message_id", msg.ID),
		slog.String("sender", string(sender)),
		slog.String("recipient", string(recipient)),
	)
	return msg, nil
}

// truncateBody cuts body to at most limit bytes without splitting a character
func truncateBody(body string, limit int) string {
	if len(body) <= limit {
		return body
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// History returns a player's recent messages, newest first
func (s *Service) History(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.ChatMessage, error) {
	return s.storage.ListChatMessages(ctx, playerID, limit)
}
