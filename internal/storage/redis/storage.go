package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, session *model.GameSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, snapshotKey(session.ID), data, s.cfg.SnapshotTTL)
	pipe.SAdd(ctx, snapshotIndexKey(), string(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSnapshot(ctx context.Context, id model.GameID) (*model.GameSession, error) {
	data, err := s.client.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var session model.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, id model.GameID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, snapshotKey(id))
	pipe.SRem(ctx, snapshotIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

// ListSnapshots returns every stored snapshot ordered by creation time.
// Index entries whose snapshot has expired are pruned.
func (s *Storage) ListSnapshots(ctx context.Context) ([]*model.GameSession, error) {
	ids, err := s.client.SMembers(ctx, snapshotIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.GameSession{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(model.GameID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.GameSession, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var session model.GameSession
		if err := json.Unmarshal([]byte(str), &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}

	if len(expired) > 0 {
		if err := s.client.SRem(ctx, snapshotIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Chat operations

func (s *Storage) SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, playerID := range []model.PlayerID{msg.SenderID, msg.Recipient} {
		key := chatKey(playerID)
		pipe.LPush(ctx, key, data)
		if s.cfg.ChatHistoryLength > 0 {
			pipe.LTrim(ctx, key, 0, s.cfg.ChatHistoryLength-1)
		}
		if s.cfg.ChatTTL > 0 {
			pipe.Expire(ctx, key, s.cfg.ChatTTL)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListChatMessages(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.ChatMessage, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, chatKey(playerID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]*model.ChatMessage, 0, len(values))
	for _, v := range values {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
