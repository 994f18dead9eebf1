package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store with per-key expiry.
// It backs single-node deployments without Redis and every cart test.
// Values round-trip through JSON so it expires and isolates exactly like
// the Redis store.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	expiry map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]byte),
		expiry: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[sessionID]
	if !ok {
		return nil, nil
	}
	if exp, has := s.expiry[sessionID]; has && time.Now().After(exp) {
		delete(s.data, sessionID)
		delete(s.expiry, sessionID)
		return nil, nil
	}

	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) Save(ctx context.Context, c *Cart) error {
	c.ExpiresAt = time.Now().UTC().Add(TTL)
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.SessionID] = raw
	s.expiry[c.SessionID] = time.Now().Add(TTL)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	delete(s.expiry, sessionID)
	return nil
}
