package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/namurok/dialogue-engine/internal/domain"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process SessionStore for tests and store-less dev
// mode. Entries expire lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory store with the given session TTL.
func NewMemory(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	sess, err := domain.UnmarshalSession(entry.data)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return sess, nil
}

func (s *MemoryStore) Save(_ context.Context, session *domain.Session) error {
	data, err := domain.MarshalSession(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// PurgeExpired drops every entry past its TTL and reports how many
// were removed. Get already expires lazily; this keeps the map from
// accumulating abandoned sessions.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			purged++
		}
	}
	return purged
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
