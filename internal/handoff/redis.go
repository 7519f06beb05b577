package handoff

import (
	"context"
	"fmt"

	"greywaterbot/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each conversation set as a Redis SET at prefix+name, so
// several bot replicas share handoff state.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts := &redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("handoff redis %s: ping failed: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Set(name string) domain.ConversationSet {
	return &redisSet{client: r.client, key: r.prefix + name}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

type redisSet struct {
	client *redis.Client
	key    string
}

func (s *redisSet) Has(ctx context.Context, conversationID int64) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, conversationID).Result()
	if err != nil {
		return false, fmt.Errorf("handoff %s: lookup %d: %w", s.key, conversationID, err)
	}
	return ok, nil
}

func (s *redisSet) Add(ctx context.Context, conversationID int64) error {
	if err := s.client.SAdd(ctx, s.key, conversationID).Err(); err != nil {
		return fmt.Errorf("handoff %s: add %d: %w", s.key, conversationID, err)
	}
	return nil
}
