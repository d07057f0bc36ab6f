package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryStore keeps configurations in process, evicting the least recently
// used user once capacity is reached.
type MemoryStore struct {
	mu    sync.Mutex // serialises read-modify-write in Save
	cache *lru.Cache // userID -> UserConfig
	now   func() time.Time
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, clocks []Clock) (UserConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *UserConfig
	if v, ok := s.cache.Peek(userID); ok {
		p := v.(UserConfig)
		prev = &p
	}
	cfg := upsert(prev, userID, clocks, s.now().UTC())
	s.cache.Add(userID, cfg)
	return copyConfig(cfg), nil
}

func (s *MemoryStore) Load(_ context.Context, userID string) (UserConfig, bool, error) {
	v, ok := s.cache.Get(userID)
	if !ok {
		return UserConfig{}, false, nil
	}
	return copyConfig(v.(UserConfig)), true, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) (bool, error) {
	return s.cache.Remove(userID), nil
}

// List returns configurations from least to most recently used.
func (s *MemoryStore) List(_ context.Context) ([]UserConfig, error) {
	keys := s.cache.Keys()
	out := make([]UserConfig, 0, len(keys))
	for _, k := range keys {
		if v, ok := s.cache.Peek(k); ok {
			out = append(out, copyConfig(v.(UserConfig)))
		}
	}
	return out, nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func copyConfig(c UserConfig) UserConfig {
	c.Clocks = append([]Clock{}, c.Clocks...)
	return c
}
