package userservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paddle-arena/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/alice/blocks/bob", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocked":false}`))
	})
	mux.HandleFunc("/api/v1/users/alice/blocks/mallory", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blocked":true}`))
	})
	mux.HandleFunc("/api/v1/users/alice/blocks/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/v1/users/alice/blocks/garbled", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	mux.HandleFunc("/api/v1/users/alice/friends/bob", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Service-Token"))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/users/alice/friends/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIsBlocked(t *testing.T) {
	srv := newTestServer(t)
	client := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	blocked, err := client.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, err = client.IsBlocked(ctx, "alice", "mallory")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestIsBlockedErrors(t *testing.T) {
	srv := newTestServer(t)
	client := New(srv.URL, time.Second)
	ctx := context.Background()

	_, err := client.IsBlocked(ctx, "alice", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = client.IsBlocked(ctx, "alice", "garbled")
	assert.Error(t, err)
}

func TestEnsureFriendship(t *testing.T) {
	srv := newTestServer(t)
	client := New(srv.URL, time.Second)
	client.SetHeader("X-Service-Token", "secret")
	ctx := context.Background()

	assert.NoError(t, client.EnsureFriendship(ctx, "alice", "bob"))

	// Unregistered path 404s
	assert.ErrorIs(t, client.EnsureFriendship(ctx, "alice", "stranger"), model.ErrNotFriends)

	err := client.EnsureFriendship(ctx, "alice", "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFriends)
}

func TestUnreachableService(t *testing.T) {
	srv := newTestServer(t)
	client := New(srv.URL, time.Second)
	srv.Close()

	_, err := client.IsBlocked(context.Background(), "alice", "bob")
	assert.Error(t, err)
}
