package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

// MemoryStore keeps sessions in a map. Entries do not survive a restart.
type MemoryStore struct {
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewMemoryStore creates an in-process store. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With("component", "memory_session"),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Stage(_ context.Context, id, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.entries[id].path
	e := entry{path: path}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[id] = e
	s.logger.Debug("document staged", "session", id, "replaced", prev != "")
	return prev, nil
}

func (s *MemoryStore) Consume(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	// Expired entries stay until Sweep so their files get cleaned up.
	if !ok || e.expired(s.now()) {
		return "", types.ErrNoStagedDocument
	}
	delete(s.entries, id)
	return e.path, nil
}

func (s *MemoryStore) Expire(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return "", nil
	}
	delete(s.entries, id)
	return e.path, nil
}

func (s *MemoryStore) Sweep(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var paths []string
	for id, e := range s.entries {
		if e.expired(now) {
			paths = append(paths, e.path)
			delete(s.entries, id)
		}
	}
	if len(paths) > 0 {
		s.logger.Info("expired sessions swept", "count", len(paths))
	}
	return paths, nil
}

// Len returns the number of entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}
