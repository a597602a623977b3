package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/testutil"
)

type stubUsers struct {
	blocked     bool
	blockErr    error
	friendErr   error
	friendCalls int
}

func (u *stubUsers) IsBlocked(context.Context, model.PlayerID, model.PlayerID) (bool, error) {
	return u.blocked, u.blockErr
}

func (u *stubUsers) EnsureFriendship(context.Context, model.PlayerID, model.PlayerID) error {
	u.friendCalls++
	return u.friendErr
}

func TestGateAuthorize(t *testing.T) {
	outage := errors.New("connection refused")

	tests := []struct {
		name            string
		users           *stubUsers
		wantErr         error
		wantFriendCalls int
	}{
		{"friends and not blocked", &stubUsers{}, nil, 1},
		{"blocked", &stubUsers{blocked: true}, model.ErrChatNotPermitted, 0},
		{"not friends", &stubUsers{friendErr: model.ErrNotFriends}, model.ErrChatNotPermitted, 1},
		{"block lookup fails", &stubUsers{blockErr: outage}, model.ErrChatGateUnavailable, 0},
		{"friendship lookup fails", &stubUsers{friendErr: outage}, model.ErrChatGateUnavailable, 1},
		{"wrapped not friends", &stubUsers{friendErr: errors.Join(model.ErrNotFriends)}, model.ErrChatNotPermitted, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.users, testutil.NopLogger())

			err := gate.Authorize(context.Background(), "alice", "bob")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantFriendCalls, tt.users.friendCalls)
		})
	}
}

func TestDenyAllNeverPermits(t *testing.T) {
	gate := NewGate(DenyAll{}, testutil.NopLogger())

	err := gate.Authorize(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, model.ErrChatNotPermitted)
}
