package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paddle-arena/internal/config"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/services/chat"
	"github.com/mcoot/paddle-arena/internal/testutil"
)

func TestNewUserServiceWithoutURLDeniesChat(t *testing.T) {
	users := newUserService(config.Default(), testutil.NopLogger())
	assert.IsType(t, chat.DenyAll{}, users)
}

func TestNewUserServiceSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.UserServiceURL = srv.URL
	cfg.UserServiceTimeout = time.Second
	cfg.UserServiceToken = "s3cret"

	users := newUserService(cfg, testutil.NopLogger())
	require.NoError(t, users.EnsureFriendship(context.Background(), model.PlayerID("alice"), model.PlayerID("bob")))
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestNewUserServiceOmitsEmptyToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.UserServiceURL = srv.URL

	users := newUserService(cfg, testutil.NopLogger())
	require.NoError(t, users.EnsureFriendship(context.Background(), "alice", "bob"))
	assert.Empty(t, gotAuth)
}
