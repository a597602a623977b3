package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
	"github.com/mcoot/paddle-arena/internal/dependencies/random"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
)

// mailboxSize bounds how many commands may queue ahead of the actor
const mailboxSize = 64

// Hooks let the owner of a session react to its transitions.
// They run on the session goroutine and must not block or call back into the session.
type Hooks struct {
	// OnStarted is called when both players are ready and play begins
	OnStarted func(gameID model.GameID)
	// OnTerminal is called once with the final snapshot when the session completes or aborts
	OnTerminal func(final *model.GameSession)
}

// Deps are the collaborators a session needs
type Deps struct {
	Clock     clock.Clock
	Random    random.Random
	Publisher events.Publisher
	Logger    *slog.Logger
	Hooks     Hooks
}

type commandKind int

const (
	cmdMove commandKind = iota
	cmdReady
	cmdDisconnect
)

type command struct {
	kind     commandKind
	move     model.ValidatedMove
	playerID model.PlayerID
	reply    chan *model.GameSession
}

// Session owns one game's authoritative state. All mutations run on a single
// goroutine fed by the mailbox, the ready-timeout channel and the simulation ticker.
type Session struct {
	id       model.GameID
	settings model.GameSettings
	deps     Deps
	logger   *slog.Logger

	// Owned by the run goroutine
	state  *model.GameSession
	ticker clockwork.Ticker

	latest atomic.Pointer[model.GameSession]

	mailbox  chan command
	timeouts chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a session for two players and starts its actor goroutine.
// playerA defends the left side and playerB the right.
func New(id model.GameID, playerA, playerB model.PlayerID, settings model.GameSettings, deps Deps) *Session {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}

	now := deps.Clock.Now()
	centre := settings.TableCentre()
	state := &model.GameSession{
		ID:    id,
		Phase: model.PhaseWaitingForReady,
		Paddles: [2]model.Paddle{
			{PlayerID: playerA, Side: model.SideLeft, Position: centre, Connected: true},
			{PlayerID: playerB, Side: model.SideRight, Position: centre, Connected: true},
		},
		Ball:      model.Ball{X: settings.TableWidth / 2, Y: centre},
		Score:     map[model.Side]int{model.SideLeft: 0, model.SideRight: 0},
		Version:   1,
		CreatedAt: now,
	}

	s := &Session{
		id:       id,
		settings: settings,
		deps:     deps,
		logger:   deps.Logger.With(slog.String("game_id", string(id))),
		state:    state,
		mailbox:  make(chan command, mailboxSize),
		timeouts: make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.latest.Store(state.Clone())

	go s.run()

	s.publish(model.EventSessionCreated, "", model.SessionCreatedPayload{Left: playerA, Right: playerB})
	return s
}

// ID returns the game this session runs
func (s *Session) ID() model.GameID {
	return s.id
}

// SideOf returns the side the player defends
func (s *Session) SideOf(playerID model.PlayerID) (model.Side, error) {
	snap := s.latest.Load()
	paddle := snap.Paddle(playerID)
	if paddle == nil {
		return "", model.ErrUnknownPlayer
	}
	return paddle.Side, nil
}

// Snapshot returns a copy of the most recent state. It stays readable after the session stops.
func (s *Session) Snapshot() *model.GameSession {
	return s.latest.Load().Clone()
}

// ApplyMove applies a validated move and returns once the actor has processed it.
// Moves outside of play are dropped without error.
func (s *Session) ApplyMove(ctx context.Context, move model.ValidatedMove) error {
	_, err := s.send(ctx, command{kind: cmdMove, move: move, playerID: move.PlayerID})
	return err
}

// MarkReady records a player's readiness and returns the resulting snapshot
func (s *Session) MarkReady(ctx context.Context, playerID model.PlayerID) (*model.GameSession, error) {
	return s.send(ctx, command{kind: cmdReady, playerID: playerID})
}

// Disconnect aborts a non-terminal session because the player left
func (s *Session) Disconnect(ctx context.Context, playerID model.PlayerID) error {
	_, err := s.send(ctx, command{kind: cmdDisconnect, playerID: playerID})
	return err
}

// ReadyTimeoutExpired signals that the ready window elapsed. It never blocks;
// a signal already pending absorbs the new one.
func (s *Session) ReadyTimeoutExpired() {
	select {
	case s.timeouts <- struct{}{}:
	default:
	}
}

// Stop asks the actor to exit. A session that has not finished is aborted with
// reason server_shutdown. Stop does not wait; use Done for that.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Done is closed once the actor goroutine has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) send(ctx context.Context, cmd command) (*model.GameSession, error) {
	cmd.reply = make(chan *model.GameSession, 1)

	select {
	case s.mailbox <- cmd:
	case <-s.done:
		return nil, model.ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case snap := <-cmd.reply:
		return snap, nil
	case <-s.done:
		// The actor may have answered just before exiting
		select {
		case snap := <-cmd.reply:
			return snap, nil
		default:
			return nil, model.ErrSessionClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.stopTicker()

	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.Chan()
		}

		select {
		case cmd := <-s.mailbox:
			s.handle(cmd)
		case <-s.timeouts:
			s.handleReadyTimeout()
		case <-tick:
			s.step(s.settings.TickInterval.Seconds())
		case <-s.stop:
			if !s.state.Phase.IsTerminal() {
				s.abort(model.AbortReasonServerShutdown, "")
			}
			return
		}
	}
}

func (s *Session) handle(cmd command) {
	switch cmd.kind {
	case cmdMove:
		s.handleMove(cmd.move)
	case cmdReady:
		s.handleReady(cmd.playerID)
	case cmdDisconnect:
		s.handleDisconnect(cmd.playerID)
	}
	cmd.reply <- s.state.Clone()
}

func (s *Session) handleMove(move model.ValidatedMove) {
	if s.state.Phase != model.PhaseInProgress {
		s.logger.Debug("move dropped outside of play",
			slog.String("player_id", string(move.PlayerID)),
			slog.String("phase", string(s.state.Phase)),
		)
		return
	}

	paddle := s.state.Paddle(move.PlayerID)
	if paddle == nil {
		s.logger.Warn("move for non-participant reached session", slog.String("player_id", string(move.PlayerID)))
		return
	}

	paddle.Position, paddle.Velocity = applyPaddleMove(paddle.Position, move.Direction, move.DeltaTime, s.settings)
	s.commit()

	s.publish(model.EventPaddleMoved, move.PlayerID, model.PaddleMovedPayload{
		Side:     paddle.Side,
		Position: paddle.Position,
		Velocity: paddle.Velocity,
	})
}

func (s *Session) handleReady(playerID model.PlayerID) {
	if s.state.Phase != model.PhaseWaitingForReady {
		s.logger.Debug("ready dropped outside of ready window",
			slog.String("player_id", string(playerID)),
			slog.String("phase", string(s.state.Phase)),
		)
		return
	}

	paddle := s.state.Paddle(playerID)
	if paddle == nil || paddle.Ready {
		return
	}

	paddle.Ready = true
	s.commit()
	s.publish(model.EventPlayerReady, playerID, model.PlayerReadyPayload{Side: paddle.Side})

	s.logger.Info("player ready",
		slog.String("player_id", string(playerID)),
		slog.String("side", string(paddle.Side)),
	)

	if s.state.AllReady() {
		s.startPlay()
	}
}

func (s *Session) handleDisconnect(playerID model.PlayerID) {
	if s.state.Phase.IsTerminal() {
		s.logger.Debug("disconnect dropped for finished session", slog.String("player_id", string(playerID)))
		return
	}

	if paddle := s.state.Paddle(playerID); paddle != nil {
		paddle.Connected = false
	}
	s.abort(model.AbortReasonPlayerDisconnected, playerID)
}

func (s *Session) handleReadyTimeout() {
	if s.state.Phase != model.PhaseWaitingForReady {
		s.logger.Debug("ready timeout dropped", slog.String("phase", string(s.state.Phase)))
		return
	}
	s.abort(model.AbortReasonReadyTimeout, "")
}

func (s *Session) startPlay() {
	now := s.deps.Clock.Now()
	s.state.Phase = model.PhaseInProgress
	s.state.StartedAt = now

	first := model.SideLeft
	if s.deps.Random.Intn(2) == 1 {
		first = model.SideRight
	}
	s.state.Ball = serveBall(first, s.deps.Random.Float64(), s.settings)
	s.commit()

	if s.deps.Hooks.OnStarted != nil {
		s.deps.Hooks.OnStarted(s.id)
	}

	s.ticker = s.deps.Clock.NewTicker(s.settings.TickInterval)

	s.publish(model.EventGameStarted, "", nil)
	s.logger.Info("game started", slog.String("serve", string(first)))
}

// step advances the simulation by dt seconds
func (s *Session) step(dt float64) {
	if s.state.Phase != model.PhaseInProgress {
		return
	}

	scorer := stepBall(&s.state.Ball, s.state.Paddles[0], s.state.Paddles[1], dt, s.settings)
	if scorer == "" {
		s.commit()
		s.publish(model.EventStateTick, "", model.StateTickPayload{Session: s.state.Clone()})
		return
	}

	s.state.Score[scorer]++
	s.publish(model.EventPointScored, s.state.PaddleFor(scorer).PlayerID, model.PointScoredPayload{
		Scorer: scorer,
		Score:  copyScore(s.state.Score),
	})

	if s.state.Score[scorer] >= s.settings.WinScore {
		s.complete(scorer)
		return
	}

	// Serve towards the side that conceded
	s.state.Ball = serveBall(scorer.Opponent(), s.deps.Random.Float64(), s.settings)
	s.commit()
}

func (s *Session) complete(winner model.Side) {
	s.stopTicker()
	s.state.Phase = model.PhaseCompleted
	s.state.Winner = s.state.PaddleFor(winner).PlayerID
	s.state.EndedAt = s.deps.Clock.Now()
	s.commit()

	s.logger.Info("game completed",
		slog.String("winner", string(s.state.Winner)),
		slog.Int("left_score", s.state.Score[model.SideLeft]),
		slog.Int("right_score", s.state.Score[model.SideRight]),
	)

	s.publish(model.EventGameCompleted, s.state.Winner, model.GameCompletedPayload{
		Winner: s.state.Winner,
		Score:  copyScore(s.state.Score),
	})
	s.finish()
}

func (s *Session) abort(reason model.AbortReason, playerID model.PlayerID) {
	s.stopTicker()
	s.state.Phase = model.PhaseAborted
	s.state.AbortReason = reason
	s.state.EndedAt = s.deps.Clock.Now()
	s.commit()

	s.logger.Info("game aborted",
		slog.String("reason", string(reason)),
		slog.String("player_id", string(playerID)),
	)

	s.publish(model.EventGameAborted, playerID, model.GameAbortedPayload{Reason: reason})
	s.finish()
}

func (s *Session) finish() {
	if s.deps.Hooks.OnTerminal != nil {
		s.deps.Hooks.OnTerminal(s.state.Clone())
	}
}

// commit bumps the version and publishes the state to readers
func (s *Session) commit() {
	s.state.Version++
	s.latest.Store(s.state.Clone())
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) publish(eventType model.EventType, playerID model.PlayerID, payload any) {
	s.deps.Publisher.Publish(context.Background(), model.Event{
		Type:      eventType,
		Timestamp: s.deps.Clock.Now(),
		GameID:    s.id,
		PlayerID:  playerID,
		Payload:   payload,
	})
}

func copyScore(score map[model.Side]int) map[model.Side]int {
	c := make(map[model.Side]int, len(score))
	for side, points := range score {
		c[side] = points
	}
	return c
}
