package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/setu/pkg/lifecycle"
)

const sweepInterval = time.Minute

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Sessions are stored encoded so
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewMemoryStore creates an in-process store whose sessions expire after ttl
// without updates.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		logger:  logger.With("system", "sessions", "store", StoreMemory),
		now:     time.Now,
	}
}

// Start runs a sweeper that evicts expired sessions until shutdown.
func (m *MemoryStore) Start(lc *lifecycle.Coordinator) error {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-lc.Context().Done():
				return
			case <-ticker.C:
				if n := m.sweep(); n > 0 {
					m.logger.Debug("expired sessions evicted", "count", n)
				}
			}
		}
	}()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}

	sess.ID = id
	sess.UpdatedAt = m.now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	m.entries[id] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
	return sess, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) load(id string) (*Session, error) {
	entry, ok := m.entries[id]
	if !ok || m.now().After(entry.expires) {
		delete(m.entries, id)
		return newSession(id), nil
	}

	var sess Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (m *MemoryStore) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}
