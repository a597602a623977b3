package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/paddle-arena/internal/model"
)

// UserServiceClient answers relationship questions about two users.
// EnsureFriendship returns model.ErrNotFriends when the users are not friends.
type UserServiceClient interface {
	IsBlocked(ctx context.Context, sender, recipient model.PlayerID) (bool, error)
	EnsureFriendship(ctx context.Context, sender, recipient model.PlayerID) error
}

// Gate decides whether a chat message may be delivered. It fails closed:
// any lookup failure denies the message.
type Gate struct {
	users  UserServiceClient
	logger *slog.Logger
}

// NewGate creates a Gate backed by the given user service
func NewGate(users UserServiceClient, logger *slog.Logger) *Gate {
	return &Gate{
		users:  users,
		logger: logger.With(slog.String("component", "chat_gate")),
	}
}

// Authorize returns nil when sender may message recipient, model.ErrChatNotPermitted
// when the users' relationship forbids it and model.ErrChatGateUnavailable when
// the user service could not answer
func (g *Gate) Authorize(ctx context.Context, sender, recipient model.PlayerID) error {
	blocked, err := g.users.IsBlocked(ctx, sender, recipient)
	if err != nil {
		g.logger.Warn("block lookup failed",
			slog.String("sender", string(sender)),
			slog.String("recipient", string(recipient)),
			slog.String("error", err.Error()),
		)
		return model.ErrChatGateUnavailable
	}
	if blocked {
		return model.ErrChatNotPermitted
	}

	if err := g.users.EnsureFriendship(ctx, sender, recipient); err != nil {
		if errors.Is(err, model.ErrNotFriends) {
			return model.ErrChatNotPermitted
		}
		g.logger.Warn("friendship lookup failed",
			slog.String("sender", string(sender)),
			slog.String("recipient", string(recipient)),
			slog.String("error", err.Error()),
		)
		return model.ErrChatGateUnavailable
	}
	return nil
}

// DenyAll is the user service used when none is configured. Nobody is friends.
type DenyAll struct{}

// Ensure DenyAll implements UserServiceClient
var _ UserServiceClient = DenyAll{}

// IsBlocked reports no block
func (DenyAll) IsBlocked(context.Context, model.PlayerID, model.PlayerID) (bool, error) {
	return false, nil
}

// EnsureFriendship always reports that the users are not friends
func (DenyAll) EnsureFriendship(context.Context, model.PlayerID, model.PlayerID) error {
	return model.ErrNotFriends
}
