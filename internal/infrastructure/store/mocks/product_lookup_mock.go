package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-sync/internal/domain/catalog"
)

// MockProductLookup stands in for the cache-then-source lookup.
// Products are served from the backing store; Refresh and Invalidate
// calls are recorded so tests can assert cache maintenance.
type MockProductLookup struct {
	Store *MockProductStore

	mu              sync.Mutex
	RefreshCalls    []catalog.Product
	InvalidateCalls []string
	RefreshErr      error
}

func NewMockProductLookup(store *MockProductStore) *MockProductLookup {
	return &MockProductLookup{Store: store}
}

func (m *MockProductLookup) Product(ctx context.Context, id string) (*catalog.Product, error) {
	return m.Store.FindByID(ctx, id)
}

func (m *MockProductLookup) Refresh(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RefreshErr != nil {
		return m.RefreshErr
	}
	m.RefreshCalls = append(m.RefreshCalls, *p)
	return nil
}

func (m *MockProductLookup) Invalidate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InvalidateCalls = append(m.InvalidateCalls, id)
	return nil
}
