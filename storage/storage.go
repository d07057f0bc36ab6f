// Package storage persists per-user world clock configurations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidClock is returned when a clock is missing a required field.
var ErrInvalidClock = errors.New("invalid clock")

// Clock is one world clock shown by a user.
type Clock struct {
	ID       string `json:"id"`
	Timezone string `json:"timezone"`
	Label    string `json:"label"`
}

// UserConfig is the saved clock collection of one user.
type UserConfig struct {
	UserID    string    `json:"userId"`
	Clocks    []Clock   `json:"clocks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is implemented by every configuration backend.
type Store interface {
	// Save upserts the configuration of userID. CreatedAt of an existing
	// record is kept.
	Save(ctx context.Context, userID string, clocks []Clock) (UserConfig, error)
	// Load reports false when userID has nothing saved.
	Load(ctx context.Context, userID string) (UserConfig, bool, error)
	Delete(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]UserConfig, error)
}

// ValidateClocks checks the required fields and returns a copy in which
// clocks without an ID have been given one.
func ValidateClocks(clocks []Clock) ([]Clock, error) {
	out := make([]Clock, len(clocks))
	for i, c := range clocks {
		c.Timezone = strings.TrimSpace(c.Timezone)
		if c.Timezone == "" {
			return nil, fmt.Errorf("%w: clock %d has no timezone", ErrInvalidClock, i)
		}
		if strings.TrimSpace(c.Label) == "" {
			return nil, fmt.Errorf("%w: clock %d has no label", ErrInvalidClock, i)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		out[i] = c
	}
	return out, nil
}

func upsert(prev *UserConfig, userID string, clocks []Clock, now time.Time) UserConfig {
	cfg := UserConfig{
		UserID:    userID,
		Clocks:    append([]Clock(nil), clocks...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cfg.Clocks == nil {
		cfg.Clocks = []Clock{}
	}
	if prev != nil && !prev.CreatedAt.IsZero() {
		cfg.CreatedAt = prev.CreatedAt
	}
	return cfg
}
