package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/paddle-arena/internal/api/response"
	"github.com/mcoot/paddle-arena/internal/events"
	"github.com/mcoot/paddle-arena/internal/model"
)

// Config holds NATS connection settings
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default NATS configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "arena",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Conn is the part of *nats.Conn the publisher uses
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher forwards session and chat events to NATS subjects:
//
//	<prefix>.games.<game_id>.<event_type>
//	<prefix>.players.<player_id>.<event_type>
//
// State ticks are not forwarded.
type Publisher struct {
	conn   Conn
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// Ensure Publisher implements events.Publisher
var _ events.Publisher = (*Publisher)(nil)

// Connect dials NATS and returns a Publisher that owns the connection
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	logger = logger.With(slog.String("component", "nats"))

	opts := []nats.Option{
		nats.Name("paddle-arena"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS error", slog.String("error", err.Error()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	p := NewWithConn(nc, cfg.SubjectPrefix, logger)
	p.nc = nc
	return p, nil
}

// NewWithConn creates a Publisher over an existing connection (for testing)
func NewWithConn(conn Conn, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger,
	}
}

// Publish encodes the event and publishes it. Failures are logged, never returned.
func (p *Publisher) Publish(_ context.Context, event model.Event) {
	if event.Type == model.EventStateTick {
		return
	}

	data, err := json.Marshal(response.EventFromModel(event))
	if err != nil {
		p.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

// Subject returns the subject an event is published on
func (p *Publisher) Subject(event model.Event) string {
	if event.GameID != "" {
		return fmt.Sprintf("%s.games.%s.%s", p.prefix, token(string(event.GameID)), event.Type)
	}
	return fmt.Sprintf("%s.players.%s.%s", p.prefix, token(string(event.PlayerID)), event.Type)
}

// Close flushes pending messages and closes the connection if the publisher owns it
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// token makes an id safe to use as a single subject token
func token(id string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(id)
}
