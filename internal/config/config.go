package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	natspub "github.com/mcoot/paddle-arena/internal/events/nats"
	"github.com/mcoot/paddle-arena/internal/model"
	redisstorage "github.com/mcoot/paddle-arena/internal/storage/redis"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// ErrInvalidConfig is returned when an environment value cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the server configuration assembled from the environment
type Config struct {
	HTTPHost string
	HTTPPort int

	Settings  model.GameSettings
	ReapDelay time.Duration

	StorageType string
	Redis       redisstorage.Config

	// NATS is nil when event publishing to NATS is disabled
	NATS *natspub.Config

	// UserServiceURL is empty when no user service is configured; chat is then always denied
	UserServiceURL     string
	UserServiceTimeout time.Duration
	// UserServiceToken is sent as a bearer token on user service requests when set
	UserServiceToken string

	LogLevel slog.Level
}

// Default returns the configuration used when no environment is set
func Default() Config {
	return Config{
		HTTPPort:           8080,
		Settings:           model.DefaultGameSettings(),
		ReapDelay:          5 * time.Second,
		StorageType:        StorageTypeMemory,
		Redis:              redisstorage.DefaultConfig(),
		UserServiceTimeout: 2 * time.Second,
		LogLevel:           slog.LevelInfo,
	}
}

// Load reads the given .env files (default ".env") if they exist, then builds
// the configuration from environment variables over Default.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	cfg.HTTPHost = r.string("HTTP_HOST", cfg.HTTPHost)
	cfg.HTTPPort = r.int("HTTP_PORT", cfg.HTTPPort)

	s := &cfg.Settings
	s.ReadyTimeout = r.millis("READY_TIMEOUT_MS", s.ReadyTimeout)
	s.MaxFrameDelta = r.millis("MAX_FRAME_DELTA_MS", s.MaxFrameDelta)
	s.TickInterval = r.millis("TICK_INTERVAL_MS", s.TickInterval)
	s.TableMin = r.float("TABLE_MIN", s.TableMin)
	s.TableMax = r.float("TABLE_MAX", s.TableMax)
	s.TableWidth = r.float("TABLE_WIDTH", s.TableWidth)
	s.PaddleSpeed = r.float("PADDLE_SPEED", s.PaddleSpeed)
	s.PaddleHalfHeight = r.float("PADDLE_HALF_HEIGHT", s.PaddleHalfHeight)
	s.BallSpeed = r.float("BALL_SPEED", s.BallSpeed)
	s.WinScore = r.int("WIN_SCORE", s.WinScore)
	cfg.ReapDelay = r.millis("REAP_DELAY_MS", cfg.ReapDelay)

	cfg.StorageType = strings.ToLower(r.string("STORAGE_TYPE", cfg.StorageType))
	cfg.Redis.URL = r.string("REDIS_URL", "")
	cfg.Redis.SnapshotTTL = r.millis("SNAPSHOT_TTL_MS", cfg.Redis.SnapshotTTL)

	if url := r.string("NATS_URL", ""); url != "" {
		natsCfg := natspub.DefaultConfig()
		natsCfg.URL = url
		natsCfg.SubjectPrefix = r.string("NATS_SUBJECT_PREFIX", natsCfg.SubjectPrefix)
		cfg.NATS = &natsCfg
	}

	cfg.UserServiceURL = r.string("USER_SERVICE_URL", "")
	cfg.UserServiceTimeout = r.millis("USER_SERVICE_TIMEOUT_MS", cfg.UserServiceTimeout)
	cfg.UserServiceToken = r.string("USER_SERVICE_TOKEN", "")

	if raw := r.string("LOG_LEVEL", ""); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			r.fail("LOG_LEVEL", raw)
		}
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field consistency
func (c Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.ReapDelay < 0 {
		return fmt.Errorf("%w: REAP_DELAY_MS must not be negative", ErrInvalidConfig)
	}
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: REDIS_URL required when STORAGE_TYPE=redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: STORAGE_TYPE must be %q or %q", ErrInvalidConfig, StorageTypeMemory, StorageTypeRedis)
	}
	return nil
}

// reader parses typed values and collects every bad key rather than stopping at the first
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) string(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	raw, ok := r.lookup(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw)
		return def
	}
	return v
}

func (r *reader) float(key string, def float64) float64 {
	raw, ok := r.lookup(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(key, raw)
		return def
	}
	return v
}

func (r *reader) millis(key string, def time.Duration) time.Duration {
	raw, ok := r.lookup(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.fail(key, raw)
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func (r *reader) fail(key, raw string) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, raw))
}
