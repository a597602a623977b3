package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/paddle-arena/internal/dependencies/mocks"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/services/scheduler"
	"github.com/mcoot/paddle-arena/internal/storage/memory"
	"github.com/mcoot/paddle-arena/internal/testutil"
)

const reapDelay = 5 * time.Second

type RegistrySuite struct {
	suite.Suite
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	storage   *memory.Storage
	scheduler *scheduler.Scheduler
	recorder  *events.Recorder
	settings  model.GameSettings
	registry  *Registry
	ctx       context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = memory.New()
	s.recorder = events.NewRecorder(1024)
	s.settings = model.DefaultGameSettings()
	s.scheduler = scheduler.New(s.clock, s.settings.ReadyTimeout, testutil.NopLogger())
	s.registry = New(
		Config{Settings: s.settings, ReapDelay: reapDelay},
		s.scheduler,
		s.storage,
		s.recorder,
		s.clock,
		s.random,
		testutil.NopLogger(),
	)
	s.ctx = context.Background()
}

func (s *RegistrySuite) TearDownTest() {
	s.registry.StopAll(s.ctx)
	s.scheduler.Stop()
}

func (s *RegistrySuite) waitForTimers(n int) {
	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.clock.WaitForWaiters(ctx, n))
}

func (s *RegistrySuite) phaseOf(gameID model.GameID) model.Phase {
	snap, err := s.registry.GetSession(s.ctx, gameID)
	if err != nil {
		return ""
	}
	return snap.Phase
}

func (s *RegistrySuite) createStarted(gameID model.GameID) {
	_, err := s.registry.CreateSession(s.ctx, gameID, "alice", "bob")
	s.Require().NoError(err)
	_, err = s.registry.MarkReady(s.ctx, gameID, "alice")
	s.Require().NoError(err)
	snap, err := s.registry.MarkReady(s.ctx, gameID, "bob")
	s.Require().NoError(err)
	s.Require().Equal(model.PhaseInProgress, snap.Phase)
}

// CreateSession tests

func (s *RegistrySuite) TestCreateSessionSucceeds() {
	snap, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	s.Equal(model.GameID("game-1"), snap.ID)
	s.Equal(model.PhaseWaitingForReady, snap.Phase)
	s.Equal([]model.PlayerID{"alice", "bob"}, snap.Players())
	s.True(s.registry.ReadyTimeoutPending("game-1"))
	s.True(s.registry.Exists("game-1"))

	stored, err := s.storage.GetSnapshot(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PhaseWaitingForReady, stored.Phase)
}

func (s *RegistrySuite) TestCreateSessionRejectsInvalidPlayers() {
	tests := []struct {
		name    string
		a, b    model.PlayerID
		wantErr error
	}{
		{"same player", "alice", "alice", model.ErrInvalidPlayers},
		{"missing first", "", "bob", model.ErrInvalidPlayers},
		{"missing second", "alice", "", model.ErrInvalidPlayers},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.registry.CreateSession(s.ctx, "game-x", tt.a, tt.b)
			s.ErrorIs(err, tt.wantErr)
			s.False(s.registry.Exists("game-x"))
		})
	}
}

func (s *RegistrySuite) TestDuplicateCreateLeavesOriginalIntact() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	_, err = s.registry.CreateSession(s.ctx, "game-1", "carol", "dave")
	s.ErrorIs(err, model.ErrDuplicateGame)

	snap, err := s.registry.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"alice", "bob"}, snap.Players())
}

func (s *RegistrySuite) TestConcurrentCreateOnlyOneWins() {
	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrDuplicateGame)
		}
	}
	s.Equal(1, succeeded)
}

// RouteMove tests

func (s *RegistrySuite) TestRouteMoveUnknownGame() {
	err := s.registry.RouteMove(s.ctx, model.PaddleMoveInput{GameID: "missing", PlayerID: "alice", Direction: model.DirectionUp, DeltaTime: 0.01})
	s.ErrorIs(err, model.ErrUnknownGame)
}

func (s *RegistrySuite) TestRouteMoveUnknownPlayer() {
	s.createStarted("game-1")

	err := s.registry.RouteMove(s.ctx, model.PaddleMoveInput{GameID: "game-1", PlayerID: "mallory", Direction: model.DirectionUp, DeltaTime: 0.01})
	s.ErrorIs(err, model.ErrUnknownPlayer)
}

func (s *RegistrySuite) TestRouteMoveBadDirectionDoesNotMutate() {
	s.createStarted("game-1")
	before, _ := s.registry.GetSession(s.ctx, "game-1")

	err := s.registry.RouteMove(s.ctx, model.PaddleMoveInput{GameID: "game-1", PlayerID: "alice", Direction: "sideways", DeltaTime: 0.01})
	s.ErrorIs(err, model.ErrMoveRejected)

	after, _ := s.registry.GetSession(s.ctx, "game-1")
	s.Equal(before.Version, after.Version)
	s.Equal(before.Paddles, after.Paddles)
}

func (s *RegistrySuite) TestRouteMoveAppliesInOrder() {
	s.createStarted("game-1")

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.registry.RouteMove(s.ctx, model.PaddleMoveInput{
			GameID: "game-1", PlayerID: "alice", Direction: model.DirectionUp, DeltaTime: 0.02,
		}))
	}
	s.Require().NoError(s.registry.RouteMove(s.ctx, model.PaddleMoveInput{
		GameID: "game-1", PlayerID: "alice", Direction: model.DirectionDown, DeltaTime: 0.01,
	}))

	snap, err := s.registry.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	// 50 + 5*2.4 - 1.2
	s.InDelta(60.8, snap.Paddles[0].Position, 1e-9)
	s.Equal(-120.0, snap.Paddles[0].Velocity)
}

// Ready flow

func (s *RegistrySuite) TestBothReadyCancelsReadyTimeout() {
	s.createStarted("game-1")

	s.False(s.registry.ReadyTimeoutPending("game-1"))

	s.clock.Advance(s.settings.ReadyTimeout)
	s.Never(func() bool {
		return s.phaseOf("game-1") != model.PhaseInProgress
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *RegistrySuite) TestMarkReadyUnknownPlayer() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	_, err = s.registry.MarkReady(s.ctx, "game-1", "mallory")
	s.ErrorIs(err, model.ErrUnknownPlayer)

	_, err = s.registry.MarkReady(s.ctx, "missing", "alice")
	s.ErrorIs(err, model.ErrUnknownGame)
}

func (s *RegistrySuite) TestReadyTimeoutAbortsThenReaps() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)
	_, err = s.registry.MarkReady(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	s.waitForTimers(1)

	s.clock.Advance(s.settings.ReadyTimeout)

	s.Eventually(func() bool {
		return s.phaseOf("game-1") == model.PhaseAborted
	}, time.Second, 5*time.Millisecond)

	snap, err := s.registry.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.AbortReasonReadyTimeout, snap.AbortReason)

	// Lingering: late moves are benign and the id stays occupied
	err = s.registry.RouteMove(s.ctx, model.PaddleMoveInput{GameID: "game-1", PlayerID: "bob", Direction: model.DirectionUp, DeltaTime: 0.01})
	s.NoError(err)
	_, err = s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.ErrorIs(err, model.ErrDuplicateGame)

	s.waitForTimers(1)
	s.clock.Advance(reapDelay)

	// The final snapshot outlives the session
	s.Eventually(func() bool {
		stored, err := s.storage.GetSnapshot(s.ctx, "game-1")
		return !s.registry.Exists("game-1") && err == nil && stored.Phase == model.PhaseAborted
	}, time.Second, 5*time.Millisecond)

	stored, err := s.registry.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.AbortReasonReadyTimeout, stored.AbortReason)

	err = s.registry.RouteMove(s.ctx, model.PaddleMoveInput{GameID: "game-1", PlayerID: "bob", Direction: model.DirectionUp, DeltaTime: 0.01})
	s.ErrorIs(err, model.ErrUnknownGame)

	// The id can be reused once reaped
	_, err = s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.NoError(err)
}

// Disconnect

func (s *RegistrySuite) TestDisconnectAborts() {
	s.createStarted("game-1")

	s.Require().NoError(s.registry.Disconnect(s.ctx, "game-1", "bob"))

	snap, err := s.registry.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PhaseAborted, snap.Phase)
	s.Equal(model.AbortReasonPlayerDisconnected, snap.AbortReason)
}

func (s *RegistrySuite) TestDisconnectDuringReadyWindowDisarmsTimer() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	s.Require().NoError(s.registry.Disconnect(s.ctx, "game-1", "alice"))

	s.False(s.registry.ReadyTimeoutPending("game-1"))
	s.Equal(model.PhaseAborted, s.phaseOf("game-1"))
}

// Ready-timeout control surface

func (s *RegistrySuite) TestScheduleUnknownGameIsSwallowed() {
	s.registry.ScheduleReadyTimeout("ghost")
	s.True(s.registry.ReadyTimeoutPending("ghost"))
	s.waitForTimers(1)

	s.clock.Advance(s.settings.ReadyTimeout)

	s.Eventually(func() bool {
		return !s.registry.ReadyTimeoutPending("ghost")
	}, time.Second, 5*time.Millisecond)
	s.False(s.registry.Exists("ghost"))
}

func (s *RegistrySuite) TestCancelledReadyTimeoutNeverAborts() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	s.registry.CancelReadyTimeout("game-1")
	s.clock.Advance(2 * s.settings.ReadyTimeout)

	s.Never(func() bool {
		return s.phaseOf("game-1") != model.PhaseWaitingForReady
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *RegistrySuite) TestRescheduleExtendsReadyWindow() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	s.clock.Advance(20 * time.Second)
	s.registry.ScheduleReadyTimeout("game-1")
	s.waitForTimers(1)

	s.clock.Advance(20 * time.Second)
	s.Never(func() bool {
		return s.phaseOf("game-1") != model.PhaseWaitingForReady
	}, 50*time.Millisecond, 5*time.Millisecond)

	s.clock.Advance(10 * time.Second)
	s.Eventually(func() bool {
		return s.phaseOf("game-1") == model.PhaseAborted
	}, time.Second, 5*time.Millisecond)
}

// RemoveSession

func (s *RegistrySuite) TestRemoveSession() {
	_, err := s.registry.CreateSession(s.ctx, "game-1", "alice", "bob")
	s.Require().NoError(err)

	s.Require().NoError(s.registry.RemoveSession(s.ctx, "game-1"))

	s.False(s.registry.Exists("game-1"))
	s.False(s.registry.ReadyTimeoutPending("game-1"))
	_, err = s.registry.GetSession(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)

	// Idempotent
	s.NoError(s.registry.RemoveSession(s.ctx, "game-1"))
}

func (s *RegistrySuite) TestListSessions() {
	_, _ = s.registry.CreateSession(s.ctx, "game-b", "alice", "bob")
	_, _ = s.registry.CreateSession(s.ctx, "game-a", "carol", "dave")

	sessions := s.registry.ListSessions(s.ctx)
	s.Require().Len(sessions, 2)
	s.Equal(model.GameID("game-a"), sessions[0].ID)
	s.Equal(model.GameID("game-b"), sessions[1].ID)
}

// StopAll

func (s *RegistrySuite) TestStopAllAbortsAndPersists() {
	s.createStarted("game-1")
	_, err := s.registry.CreateSession(s.ctx, "game-2", "carol", "dave")
	s.Require().NoError(err)

	s.registry.StopAll(s.ctx)

	for _, id := range []model.GameID{"game-1", "game-2"} {
		s.False(s.registry.Exists(id))
		stored, err := s.storage.GetSnapshot(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(model.PhaseAborted, stored.Phase)
		s.Equal(model.AbortReasonServerShutdown, stored.AbortReason)
	}

	_, err = s.registry.CreateSession(s.ctx, "game-3", "alice", "bob")
	s.ErrorIs(err, model.ErrSessionClosed)
}

// Creation races

// gatedStorage holds the first snapshot save until released
type gatedStorage struct {
	*memory.Storage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{
		Storage: memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStorage) SaveSnapshot(ctx context.Context, snap *model.GameSession) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Storage.SaveSnapshot(ctx, snap)
}

func (s *RegistrySuite) newGatedRegistry(store *gatedStorage) *Registry {
	sched := scheduler.New(s.clock, s.settings.ReadyTimeout, testutil.NopLogger())
	reg := New(
		Config{Settings: s.settings, ReapDelay: reapDelay},
		sched,
		store,
		s.recorder,
		s.clock,
		s.random,
		testutil.NopLogger(),
	)
	s.T().Cleanup(func() {
		reg.StopAll(context.Background())
		sched.Stop()
	})
	return reg
}

func (s *RegistrySuite) TestRemoveDuringCreateLeavesNoSnapshot() {
	store := newGatedStorage()
	reg := s.newGatedRegistry(store)

	createErr := make(chan error, 1)
	go func() {
		_, err := reg.CreateSession(s.ctx, "game-1", "alice", "bob")
		createErr <- err
	}()
	<-store.entered

	removeErr := make(chan error, 1)
	go func() {
		removeErr <- reg.RemoveSession(s.ctx, "game-1")
	}()

	select {
	case <-removeErr:
		s.FailNow("removal finished while the creation was still storing")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	s.Require().NoError(<-createErr)
	s.Require().NoError(<-removeErr)

	s.False(reg.Exists("game-1"))
	_, err := store.GetSnapshot(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
	_, err = reg.GetSession(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *RegistrySuite) TestDuplicateCreateWhileStoringFails() {
	store := newGatedStorage()
	reg := s.newGatedRegistry(store)

	createErr := make(chan error, 1)
	go func() {
		_, err := reg.CreateSession(s.ctx, "game-1", "alice", "bob")
		createErr <- err
	}()
	<-store.entered

	_, err := reg.CreateSession(s.ctx, "game-1", "carol", "dave")
	s.ErrorIs(err, model.ErrDuplicateGame)

	close(store.release)
	s.Require().NoError(<-createErr)

	snap, err := reg.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), snap.Paddles[0].PlayerID)
}

func (s *RegistrySuite) TestStopAllDuringCreateStopsNewSession() {
	store := newGatedStorage()
	reg := s.newGatedRegistry(store)

	createErr := make(chan error, 1)
	go func() {
		_, err := reg.CreateSession(s.ctx, "game-1", "alice", "bob")
		createErr <- err
	}()
	<-store.entered

	stopped := make(chan struct{})
	go func() {
		reg.StopAll(s.ctx)
		close(stopped)
	}()

	s.Eventually(func() bool {
		return reg.isStopping()
	}, time.Second, 5*time.Millisecond)

	select {
	case <-stopped:
		s.FailNow("StopAll returned before the in-flight creation finished")
	default:
	}

	close(store.release)
	s.ErrorIs(<-createErr, model.ErrSessionClosed)
	<-stopped

	s.False(reg.Exists("game-1"))
	stored, err := store.GetSnapshot(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PhaseAborted, stored.Phase)
	s.Equal(model.AbortReasonServerShutdown, stored.AbortReason)
}
