package factory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/paddle-arena/internal/dependencies/mocks"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Users      *StubUsers
	Events     *events.Recorder
	Memory     *memory.Storage
}

// TestSettings are small, fast game settings for tests
func TestSettings() model.GameSettings {
	s := model.DefaultGameSettings()
	s.ReadyTimeout = 10 * time.Second
	s.TickInterval = 100 * time.Millisecond
	s.WinScore = 2
	return s
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithSettings(TestSettings(), time.Second)
}

// NewTestAppWithSettings creates a test App with the given game settings and reap delay
func NewTestAppWithSettings(settings model.GameSettings, reapDelay time.Duration) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	users := NewStubUsers()
	recorder := events.NewRecorder(1024)

	app := newWithDependencies(dependencies{
		settings:   settings,
		reapDelay:  reapDelay,
		store:      store,
		clock:      mockClock,
		random:     mockRandom,
		users:      users,
		publishers: []events.Publisher{recorder},
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Users:      users,
		Events:     recorder,
		Memory:     store,
	}
}

// StubUsers is an in-memory user service. Pairs are directional: sender then recipient.
type StubUsers struct {
	mu      sync.Mutex
	blocked map[[2]model.PlayerID]bool
	friends map[[2]model.PlayerID]bool
	err     error
}

// NewStubUsers creates a StubUsers with no relationships
func NewStubUsers() *StubUsers {
	return &StubUsers{
		blocked: make(map[[2]model.PlayerID]bool),
		friends: make(map[[2]model.PlayerID]bool),
	}
}

// Befriend makes two users friends in both directions
func (u *StubUsers) Befriend(a, b model.PlayerID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.friends[[2]model.PlayerID{a, b}] = true
	u.friends[[2]model.PlayerID{b, a}] = true
}

// Block records that sender is blocked from messaging recipient
func (u *StubUsers) Block(sender, recipient model.PlayerID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.blocked[[2]model.PlayerID{sender, recipient}] = true
}

// FailWith makes every lookup return err until called again with nil
func (u *StubUsers) FailWith(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.err = err
}

// IsBlocked implements chat.UserServiceClient
func (u *StubUsers) IsBlocked(_ context.Context, sender, recipient model.PlayerID) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return false, u.err
	}
	return u.blocked[[2]model.PlayerID{sender, recipient}], nil
}

// EnsureFriendship implements chat.UserServiceClient
func (u *StubUsers) EnsureFriendship(_ context.Context, sender, recipient model.PlayerID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	if !u.friends[[2]model.PlayerID{sender, recipient}] {
		return model.ErrNotFriends
	}
	return nil
}
