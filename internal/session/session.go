// Package session tracks which uploaded document is waiting for a query in
// each chat.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/ShelfStat/internal/config"
)

// Store holds at most one staged document path per session.
type Store interface {
	// Stage records path for id, replacing any earlier entry. The replaced
	// path is returned so the caller can remove the file.
	Stage(ctx context.Context, id, path string) (string, error)

	// Consume returns the staged path and removes the entry. It returns
	// types.ErrNoStagedDocument when nothing live is staged.
	Consume(ctx context.Context, id string) (string, error)

	// Expire drops the entry for id without using it, expired or not, and
	// returns its path. An unknown id yields "" and no error.
	Expire(ctx context.Context, id string) (string, error)

	// Sweep removes entries older than the TTL and returns their paths.
	Sweep(ctx context.Context) ([]string, error)

	Name() string
	Close() error
}

// New creates the backend named in cfg.
func New(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.TTL, logger), nil
	case "mongodb":
		return NewMongoStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Backend)
	}
}

type entry struct {
	path      string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
