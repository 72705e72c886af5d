package securetoken

import (
	"context"
	"sync"
	"time"
)

// Store persists issued secrets between issuance and first use, keyed by the
// hex-encoded authentication code. Consume removes the entry so a secret can
// be redeemed at most once, whichever instance issued it.
type Store interface {
	Save(ctx context.Context, mac string, expiresAt time.Time) error
	// Consume removes the entry and returns its expiry. The second return
	// is false when the secret was never issued or was already consumed.
	Consume(ctx context.Context, mac string) (time.Time, bool, error)
}

// InMemoryStore keeps issued secrets in a mutex-guarded map. Entries past
// their expiry are pruned on every save so the map does not grow with
// abandoned links. Used by tests and the quick-start binary; production uses
// PostgresStore so links survive restarts.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory secret store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Save records the secret with its expiry, dropping any expired entries.
func (s *InMemoryStore) Save(ctx context.Context, mac string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, key)
		}
	}
	s.entries[mac] = expiresAt
	return nil
}

// Consume removes the secret and returns its expiry.
func (s *InMemoryStore) Consume(ctx context.Context, mac string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.entries[mac]
	if !ok {
		return time.Time{}, false, nil
	}
	delete(s.entries, mac)
	return expiresAt, true, nil
}
