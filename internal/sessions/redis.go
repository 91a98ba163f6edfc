package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/setu/pkg/lifecycle"
)

const (
	redisPrefix      = "setu:session:"
	maxUpdateRetries = 5
)

// RedisStore keeps sessions in Redis as JSON with a sliding TTL. Updates
// use WATCH so concurrent requests for one session never drop writes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a store from a redis:// URL. The connection is
// verified by the startup hook registered in Start.
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), ttl, logger), nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With("system", "sessions", "store", StoreRedis),
	}
}

func (s *RedisStore) key(id string) string {
	return redisPrefix + id
}

// Start pings Redis during startup and closes the client on shutdown.
func (s *RedisStore) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("sessions", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			s.logger.Error("redis unreachable", "error", err)
			return fmt.Errorf("connect to redis: %w", err)
		}
		s.logger.Info("redis session store ready")
		return nil
	})

	lc.OnShutdown("sessions", func(context.Context) error {
		s.logger.Info("closing redis session store")
		return s.Close()
	})

	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	return s.read(ctx, s.client, id)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := s.key(id)

	var out *Session
	txf := func(tx *redis.Tx) error {
		sess, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}

		sess.ID = id
		sess.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		out = sess
		return nil
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	s.logger.Warn("session update conflict", "id", id)
	return nil, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) read(ctx context.Context, c redis.Cmdable, id string) (*Session, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return newSession(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}
