package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
	"github.com/mcoot/paddle-arena/internal/dependencies/random"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/services/session"
	"github.com/mcoot/paddle-arena/internal/services/validator"
	"github.com/mcoot/paddle-arena/internal/storage"
)

// ReadyScheduler arms and disarms ready windows
type ReadyScheduler interface {
	Schedule(gameID model.GameID)
	Cancel(gameID model.GameID)
	Pending(gameID model.GameID) bool
	SetHandler(h func(gameID model.GameID))
}

// Config holds registry settings
type Config struct {
	Settings model.GameSettings
	// ReapDelay is how long a finished session stays routable before removal
	ReapDelay time.Duration
}

// Registry maps game ids to live sessions and routes commands to them.
// The registry lock only guards the map; it is never held while calling the
// scheduler or waiting on a session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.GameID]*session.Session
	// creating holds ids whose session is being stored; closed once routable or abandoned
	creating  map[model.GameID]chan struct{}
	creations sync.WaitGroup
	stopping  chan struct{}
	stopOnce  sync.Once
	reapers   sync.WaitGroup

	cfg       Config
	validator *validator.Validator
	scheduler ReadyScheduler
	storage   storage.Storage
	publisher events.Publisher
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// New creates a Registry and registers it as the scheduler's expiry handler
func New(
	cfg Config,
	scheduler ReadyScheduler,
	store storage.Storage,
	publisher events.Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	if publisher == nil {
		publisher = events.Nop{}
	}

	r := &Registry{
		sessions:  make(map[model.GameID]*session.Session),
		creating:  make(map[model.GameID]chan struct{}),
		stopping:  make(chan struct{}),
		cfg:       cfg,
		scheduler: scheduler,
		storage:   store,
		publisher: publisher,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "registry")),
	}
	r.validator = validator.New(cfg.Settings, r)
	scheduler.SetHandler(r.onReadyTimeout)
	return r
}

// CreateSession starts a session for two players and arms its ready window
func (r *Registry) CreateSession(ctx context.Context, gameID model.GameID, playerA, playerB model.PlayerID) (*model.GameSession, error) {
	if playerA == "" || playerB == "" || playerA == playerB {
		return nil, model.ErrInvalidPlayers
	}

	r.mu.Lock()
	if r.isStopping() {
		r.mu.Unlock()
		return nil, model.ErrSessionClosed
	}
	if _, exists := r.sessions[gameID]; exists {
		r.mu.Unlock()
		return nil, model.ErrDuplicateGame
	}
	if _, pending := r.creating[gameID]; pending {
		r.mu.Unlock()
		return nil, model.ErrDuplicateGame
	}
	created := make(chan struct{})
	r.creating[gameID] = created
	r.creations.Add(1)
	r.mu.Unlock()
	defer r.creations.Done()

	sess := session.New(gameID, playerA, playerB, r.cfg.Settings, session.Deps{
		Clock:     r.clock,
		Random:    r.random,
		Publisher: r.publisher,
		Logger:    r.logger,
		Hooks: session.Hooks{
			OnStarted:  r.scheduler.Cancel,
			OnTerminal: r.onTerminal,
		},
	})

	// Stored before the session is routable so a removal always deletes it afterwards
	snap := sess.Snapshot()
	r.persist(ctx, snap)

	r.mu.Lock()
	delete(r.creating, gameID)
	close(created)
	stopped := r.isStopping()
	if !stopped {
		r.sessions[gameID] = sess
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if stopped {
		// StopAll already took the map; this session is ours to shut down
		sess.Stop()
		<-sess.Done()
		r.persist(context.Background(), sess.Snapshot())
		return nil, model.ErrSessionClosed
	}

	r.scheduler.Schedule(gameID)

	r.logger.Info("session created",
		slog.String("game_id", string(gameID)),
		slog.String("left", string(playerA)),
		slog.String("right", string(playerB)),
		slog.Int("live_sessions", count),
	)

	return snap, nil
}

// GetSession returns the current snapshot of a game. Games that have been
// reaped are served from storage while their snapshot lives.
func (r *Registry) GetSession(ctx context.Context, gameID model.GameID) (*model.GameSession, error) {
	if sess := r.lookup(gameID); sess != nil {
		return sess.Snapshot(), nil
	}

	snap, err := r.storage.GetSnapshot(ctx, gameID)
	if errors.Is(err, model.ErrSnapshotNotFound) {
		return nil, model.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// ListSessions returns snapshots of every live session, oldest first
func (r *Registry) ListSessions(ctx context.Context) []*model.GameSession {
	r.mu.RLock()
	snaps := make([]*model.GameSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		snaps = append(snaps, sess.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// RemoveSession stops a game and forgets it. Removing an unknown game is a no-op.
func (r *Registry) RemoveSession(ctx context.Context, gameID model.GameID) error {
	r.mu.Lock()
	for {
		created, pending := r.creating[gameID]
		if !pending {
			break
		}
		r.mu.Unlock()
		select {
		case <-created:
		case <-ctx.Done():
			return ctx.Err()
		}
		r.mu.Lock()
	}
	sess, ok := r.sessions[gameID]
	delete(r.sessions, gameID)
	r.mu.Unlock()

	r.scheduler.Cancel(gameID)

	if ok {
		sess.Stop()
		select {
		case <-sess.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		r.publishRemoved(gameID)
	}

	if err := r.storage.DeleteSnapshot(ctx, gameID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	if ok {
		r.logger.Info("session removed", slog.String("game_id", string(gameID)))
	}
	return nil
}

// RouteMove validates a paddle command and applies it to its session
func (r *Registry) RouteMove(ctx context.Context, input model.PaddleMoveInput) error {
	move, err := r.validator.Validate(input)
	if err != nil {
		r.logger.Debug("move rejected",
			slog.String("game_id", string(input.GameID)),
			slog.String("player_id", string(input.PlayerID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	sess := r.lookup(move.GameID)
	if sess == nil {
		return model.ErrUnknownGame
	}

	if err := sess.ApplyMove(ctx, move); err != nil {
		if errors.Is(err, model.ErrSessionClosed) {
			return model.ErrUnknownGame
		}
		return err
	}
	return nil
}

// MarkReady records a player's readiness
func (r *Registry) MarkReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.GameSession, error) {
	sess, err := r.participant(gameID, playerID)
	if err != nil {
		return nil, err
	}

	snap, err := sess.MarkReady(ctx, playerID)
	if errors.Is(err, model.ErrSessionClosed) {
		return nil, model.ErrUnknownGame
	}
	return snap, err
}

// Disconnect reports that a player's connection went away
func (r *Registry) Disconnect(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	sess, err := r.participant(gameID, playerID)
	if err != nil {
		return err
	}

	err = sess.Disconnect(ctx, playerID)
	if errors.Is(err, model.ErrSessionClosed) {
		return model.ErrUnknownGame
	}
	return err
}

// ScheduleReadyTimeout re-arms a game's ready window. Unknown games are accepted
// and their expiry is swallowed.
func (r *Registry) ScheduleReadyTimeout(gameID model.GameID) {
	r.scheduler.Schedule(gameID)
}

// CancelReadyTimeout disarms a game's ready window
func (r *Registry) CancelReadyTimeout(gameID model.GameID) {
	r.scheduler.Cancel(gameID)
}

// ReadyTimeoutPending reports whether a ready window is armed for the game
func (r *Registry) ReadyTimeoutPending(gameID model.GameID) bool {
	return r.scheduler.Pending(gameID)
}

// SideOf resolves a participant's side. It is the validator's participant lookup.
func (r *Registry) SideOf(gameID model.GameID, playerID model.PlayerID) (model.Side, error) {
	sess := r.lookup(gameID)
	if sess == nil {
		return "", model.ErrUnknownGame
	}
	return sess.SideOf(playerID)
}

// StopAll aborts every live session, persists the final snapshots and waits
// for background reaping to finish
func (r *Registry) StopAll(ctx context.Context) {
	r.stopOnce.Do(func() {
		close(r.stopping)
	})

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[model.GameID]*session.Session)
	r.mu.Unlock()

	for gameID, sess := range sessions {
		r.scheduler.Cancel(gameID)
		sess.Stop()
	}

	for _, sess := range sessions {
		select {
		case <-sess.Done():
		case <-ctx.Done():
			r.logger.Warn("shutdown deadline reached before all sessions stopped")
			return
		}
		r.persist(ctx, sess.Snapshot())
	}

	// No creation can start once stopping is closed and the map was swapped
	r.creations.Wait()
	r.reapers.Wait()
	r.logger.Info("all sessions stopped", slog.Int("count", len(sessions)))
}

// Exists reports whether a game currently has a session, live or awaiting reap
func (r *Registry) Exists(gameID model.GameID) bool {
	return r.lookup(gameID) != nil
}

// isStopping reports whether StopAll has begun. Callers hold mu when the answer
// must be ordered against StopAll's map swap.
func (r *Registry) isStopping() bool {
	select {
	case <-r.stopping:
		return true
	default:
		return false
	}
}

func (r *Registry) lookup(gameID model.GameID) *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[gameID]
}

func (r *Registry) participant(gameID model.GameID, playerID model.PlayerID) (*session.Session, error) {
	sess := r.lookup(gameID)
	if sess == nil {
		return nil, model.ErrUnknownGame
	}
	if _, err := sess.SideOf(playerID); err != nil {
		return nil, err
	}
	return sess, nil
}

// onReadyTimeout runs under the scheduler lock and must not block
func (r *Registry) onReadyTimeout(gameID model.GameID) {
	sess := r.lookup(gameID)
	if sess == nil {
		r.logger.Debug("ready timeout for absent session", slog.String("game_id", string(gameID)))
		return
	}
	sess.ReadyTimeoutExpired()
}

// onTerminal runs on the session goroutine when a game finishes
func (r *Registry) onTerminal(final *model.GameSession) {
	r.scheduler.Cancel(final.ID)

	r.mu.RLock()
	sess := r.sessions[final.ID]
	if sess != nil {
		r.reapers.Add(1)
	}
	r.mu.RUnlock()

	if sess == nil {
		// Removed or shutting down; the remover owns cleanup
		return
	}
	go r.reap(final.ID, sess)
}

// reap keeps a finished session routable for the reap delay, then stores its
// final snapshot and drops it from the map
func (r *Registry) reap(gameID model.GameID, sess *session.Session) {
	defer r.reapers.Done()

	timer := r.clock.NewTimer(r.cfg.ReapDelay)
	select {
	case <-timer.Chan():
	case <-r.stopping:
		timer.Stop()
		return
	}

	r.mu.Lock()
	owned := r.sessions[gameID] == sess
	if owned {
		delete(r.sessions, gameID)
	}
	r.mu.Unlock()

	if !owned {
		return
	}

	sess.Stop()
	<-sess.Done()

	r.persist(context.Background(), sess.Snapshot())
	r.publishRemoved(gameID)

	r.logger.Info("session reaped", slog.String("game_id", string(gameID)))
}

func (r *Registry) persist(ctx context.Context, snap *model.GameSession) {
	if err := r.storage.SaveSnapshot(ctx, snap); err != nil {
		r.logger.Error("failed to save snapshot",
			slog.String("game_id", string(snap.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Registry) publishRemoved(gameID model.GameID) {
	r.publisher.Publish(context.Background(), model.Event{
		Type:      model.EventSessionRemoved,
		Timestamp: r.clock.Now(),
		GameID:    gameID,
	})
}
