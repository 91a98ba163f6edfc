// Package sessions persists per-browser dashboard state: the filter
// selection, the last rendered dashboard, and a one-shot flash message.
// Sessions live in memory or in Redis and are addressed by a cookie.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/lifecycle"
)

var (
	// ErrConflict indicates an update lost repeated optimistic-lock races.
	ErrConflict = errors.New("session update conflict")
	// ErrNoSession indicates a request reached a session handler without a session id.
	ErrNoSession = errors.New("no session")
)

// FlashKind distinguishes success and error flash messages.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a message shown once on the next page render.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Session is the state held for one browser.
type Session struct {
	ID        string               `json:"id"`
	Filters   filters.State        `json:"filters"`
	Dashboard *analytics.Dashboard `json:"dashboard,omitempty"`
	Flash     *Flash               `json:"flash,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Store persists sessions. Load returns a fresh session for unknown ids.
// Update applies fn atomically to the stored session and saves the
// result; if fn returns an error nothing is saved.
type Store interface {
	Start(lc *lifecycle.Coordinator) error
	Load(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New creates the store selected by cfg.
func New(cfg *Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store {
	case StoreRedis:
		return NewRedisStore(cfg.RedisURL, cfg.TTLDuration(), logger)
	case StoreMemory:
		return NewMemoryStore(cfg.TTLDuration(), logger), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func newSession(id string) *Session {
	return &Session{ID: id}
}
