// Package handoff tracks which conversations belong to a human agent.
//
// Two sets are kept per process (or per shared backend): conversations
// handed off to a human, and conversations where the "agent joined" notice
// was already posted. Both only ever grow.
package handoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"greywaterbot/internal/config"
	"greywaterbot/internal/domain"
)

// Set names used by the persistent backends.
const (
	SetHandedOff = "handed_off"
	SetAnnounced = "join_announced"
)

// State pairs the two conversation sets the router consults.
type State struct {
	HandedOff domain.ConversationSet
	Announced domain.ConversationSet
	closer    io.Closer
}

// NewMemoryState returns a State backed by two in-memory sets.
func NewMemoryState() *State {
	return &State{HandedOff: NewMemorySet(), Announced: NewMemorySet()}
}

// New builds a State for the configured backend: "memory" (default),
// "sqlite", or "redis".
func New(ctx context.Context, cfg config.HandoffConfig, logger *slog.Logger) (*State, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryState(), nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("handoff sqlite: %w", err)
		}
		logger.Info("handoff state on sqlite", "path", cfg.DBPath)
		return &State{HandedOff: store.Set(SetHandedOff), Announced: store.Set(SetAnnounced), closer: store}, nil
	case "redis":
		store, err := NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("handoff state on redis", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
		return &State{HandedOff: store.Set(SetHandedOff), Announced: store.Set(SetAnnounced), closer: store}, nil
	default:
		return nil, fmt.Errorf("unknown handoff backend %q", cfg.Backend)
	}
}

// Close releases the backing store, if any.
func (s *State) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
