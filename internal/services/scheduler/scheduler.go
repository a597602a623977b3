package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
	"github.com/mcoot/paddle-arena/internal/model"
)

// Handler receives ready-window expiries. It is invoked while the scheduler
// lock is held and must not block or call back into the Scheduler.
type Handler = func(gameID model.GameID)

// Scheduler arms one ready-window timer per game. Each armed timer carries an
// epoch; a timer whose epoch no longer matches the current handle is stale and
// its expiry is dropped.
type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	timeout time.Duration
	handler Handler
	pending map[model.GameID]*handle
	epoch   uint64
	stopped bool
	logger  *slog.Logger
}

type handle struct {
	epoch  uint64
	timer  clockwork.Timer
	cancel chan struct{}
}

// New creates a Scheduler that arms timers of the given duration
func New(clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:   clk,
		timeout: timeout,
		pending: make(map[model.GameID]*handle),
		logger:  logger.With(slog.String("component", "ready_scheduler")),
	}
}

// SetHandler registers the expiry handler. Expiries with no handler are logged and dropped.
func (s *Scheduler) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Schedule arms the ready window for a game, replacing any timer already armed for it
func (s *Scheduler) Schedule(gameID model.GameID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.pending[gameID]; ok {
		stopAndDrain(existing)
		s.logger.Debug("replaced ready timer", slog.String("game_id", string(gameID)))
	}

	s.epoch++
	h := &handle{
		epoch:  s.epoch,
		timer:  s.clock.NewTimer(s.timeout),
		cancel: make(chan struct{}),
	}
	s.pending[gameID] = h

	go s.wait(gameID, h)

	s.logger.Debug("scheduled ready timer",
		slog.String("game_id", string(gameID)),
		slog.Uint64("epoch", h.epoch),
		slog.Duration("timeout", s.timeout),
	)
}

// Cancel disarms the ready window for a game. Once Cancel returns no expiry
// for that game is delivered until it is scheduled again.
func (s *Scheduler) Cancel(gameID model.GameID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.pending[gameID]; ok {
		stopAndDrain(h)
		delete(s.pending, gameID)
		s.logger.Debug("cancelled ready timer", slog.String("game_id", string(gameID)))
	}
}

// Pending reports whether a ready window is armed for the game
func (s *Scheduler) Pending(gameID model.GameID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[gameID]
	return ok
}

// Stop disarms every timer and refuses further scheduling
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for gameID, h := range s.pending {
		stopAndDrain(h)
		delete(s.pending, gameID)
	}
	s.stopped = true
}

func (s *Scheduler) wait(gameID model.GameID, h *handle) {
	select {
	case <-h.timer.Chan():
		s.fire(gameID, h.epoch)
	case <-h.cancel:
	}
}

func (s *Scheduler) fire(gameID model.GameID, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.pending[gameID]
	if !ok || current.epoch != epoch {
		s.logger.Debug("dropped stale ready timer",
			slog.String("game_id", string(gameID)),
			slog.Uint64("epoch", epoch),
		)
		return
	}
	delete(s.pending, gameID)

	if s.handler == nil {
		s.logger.Warn("ready timer expired with no handler", slog.String("game_id", string(gameID)))
		return
	}

	s.logger.Info("ready window expired", slog.String("game_id", string(gameID)))
	s.handler(gameID)
}

// stopAndDrain stops the timer and releases its waiting goroutine
func stopAndDrain(h *handle) {
	if !h.timer.Stop() {
		select {
		case <-h.timer.Chan():
		default:
		}
	}
	close(h.cancel)
}
