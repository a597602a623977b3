package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/paddle-arena/internal/api"
	"github.com/mcoot/paddle-arena/internal/clients/userservice"
	"github.com/mcoot/paddle-arena/internal/config"
	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
	"github.com/mcoot/paddle-arena/internal/dependencies/random"
	"github.com/mcoot/paddle-arena/internal/events"
	natspub "github.com/mcoot/paddle-arena/internal/events/nats"
	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/services/chat"
	"github.com/mcoot/paddle-arena/internal/services/registry"
	"github.com/mcoot/paddle-arena/internal/services/scheduler"
	"github.com/mcoot/paddle-arena/internal/storage"
	"github.com/mcoot/paddle-arena/internal/storage/memory"
	redisstorage "github.com/mcoot/paddle-arena/internal/storage/redis"
	"github.com/mcoot/paddle-arena/internal/transport/stream"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Scheduler *scheduler.Scheduler
	Registry  *registry.Registry
	Chat      *chat.Service

	// Transport
	Hubs    *stream.HubManager
	Sockets *stream.SocketServer

	logger  *slog.Logger
	closers []io.Closer
}

// New creates a new application with all dependencies wired from configuration
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	var store storage.Storage
	switch cfg.StorageType {
	case config.StorageTypeRedis:
		redisStore, err := redisstorage.New(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, redisStore)
		store = redisStore
	default:
		store = memory.New()
	}

	var publishers []events.Publisher
	if cfg.NATS != nil {
		natsPublisher, err := natspub.Connect(*cfg.NATS, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, natsPublisher)
		publishers = append(publishers, natsPublisher)
	}

	users := newUserService(cfg, logger)

	app := newWithDependencies(dependencies{
		settings:   cfg.Settings,
		reapDelay:  cfg.ReapDelay,
		store:      store,
		clock:      clock.New(),
		random:     random.New(),
		users:      users,
		publishers: publishers,
		logger:     logger,
	})
	app.closers = closers
	return app, nil
}

// newUserService returns the configured user service client, or a gate that refuses all chat
func newUserService(cfg config.Config, logger *slog.Logger) chat.UserServiceClient {
	if cfg.UserServiceURL == "" {
		logger.Warn("no user service configured, chat messages will be refused")
		return chat.DenyAll{}
	}
	client := userservice.New(cfg.UserServiceURL, cfg.UserServiceTimeout)
	if cfg.UserServiceToken != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.UserServiceToken)
	}
	return client
}

// dependencies are the swappable inputs of an App
type dependencies struct {
	settings   model.GameSettings
	reapDelay  time.Duration
	store      storage.Storage
	clock      clock.Clock
	random     random.Random
	users      chat.UserServiceClient
	publishers []events.Publisher
	logger     *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	hubs := stream.NewHubManager(deps.logger)
	publisher := events.NewFanout(append([]events.Publisher{stream.NewBroadcaster(hubs, deps.logger)}, deps.publishers...)...)

	sched := scheduler.New(deps.clock, deps.settings.ReadyTimeout, deps.logger)
	reg := registry.New(
		registry.Config{Settings: deps.settings, ReapDelay: deps.reapDelay},
		sched,
		deps.store,
		publisher,
		deps.clock,
		deps.random,
		deps.logger,
	)
	chatService := chat.NewService(chat.NewGate(deps.users, deps.logger), deps.store, publisher, deps.clock, deps.logger)

	return &App{
		Storage:   deps.store,
		Clock:     deps.clock,
		Random:    deps.random,
		Scheduler: sched,
		Registry:  reg,
		Chat:      chatService,
		Hubs:      hubs,
		Sockets:   stream.NewSocketServer(stream.DefaultSocketConfig(), reg, deps.logger),
		logger:    deps.logger,
	}
}

// Handler returns the HTTP API for the app
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:   a.logger,
		Sessions: a.Registry,
		Chat:     a.Chat,
		Hubs:     a.Hubs,
		Sockets:  a.Sockets,
	})
}

// Shutdown stops every session, persists their final state, ends all streams
// and closes external connections
func (a *App) Shutdown(ctx context.Context) error {
	a.Registry.StopAll(ctx)
	a.Scheduler.Stop()
	a.Hubs.CloseAll()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
