package storage

import (
	"context"
	"log/slog"
	"sync"
)

// HealthCheckedStore is a Store that can report whether it is reachable.
type HealthCheckedStore interface {
	Store
	Ping(ctx context.Context) error
}

// FallbackStore serves from the primary backend while it answers pings and
// from the fallback otherwise. Switches in either direction are logged.
type FallbackStore struct {
	primary  HealthCheckedStore
	fallback Store
	logger   *slog.Logger

	mu         sync.Mutex
	usePrimary bool
}

func NewFallbackStore(primary HealthCheckedStore, fallback Store, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary:    primary,
		fallback:   fallback,
		logger:     logger,
		usePrimary: primary != nil,
	}
}

// Backend returns the store the next call will use.
func (s *FallbackStore) Backend(ctx context.Context) Store {
	if s.primary == nil {
		return s.fallback
	}
	healthy := s.primary.Ping(ctx) == nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if healthy != s.usePrimary {
		s.usePrimary = healthy
		if healthy {
			s.logger.Info("primary store reachable, using database storage", "component", "storage")
		} else {
			s.logger.Warn("primary store unreachable, using in-memory storage", "component", "storage")
		}
	}
	if s.usePrimary {
		return s.primary
	}
	return s.fallback
}

// UsingPrimary reports which backend served the last call.
func (s *FallbackStore) UsingPrimary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usePrimary
}

func (s *FallbackStore) Save(ctx context.Context, userID string, clocks []Clock) (UserConfig, error) {
	return s.Backend(ctx).Save(ctx, userID, clocks)
}

func (s *FallbackStore) Load(ctx context.Context, userID string) (UserConfig, bool, error) {
	return s.Backend(ctx).Load(ctx, userID)
}

func (s *FallbackStore) Delete(ctx context.Context, userID string) (bool, error) {
	return s.Backend(ctx).Delete(ctx, userID)
}

func (s *FallbackStore) List(ctx context.Context) ([]UserConfig, error) {
	return s.Backend(ctx).List(ctx)
}
