package store

import (
	"context"
	"sync"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
)

// MemoryTokenStore is an in-memory TokenStore for tests and the demo CLI's
// ephemeral mode.
type MemoryTokenStore struct {
	mu   sync.Mutex
	pair domain.TokenPair
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (m *MemoryTokenStore) Pair(ctx context.Context) (domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, nil
}

func (m *MemoryTokenStore) SetPair(ctx context.Context, pair domain.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

func (m *MemoryTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = domain.TokenPair{}
	return nil
}
