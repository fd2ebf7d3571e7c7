package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-sync/internal/domain/catalog"
)

// MockProductStore is an in-memory catalog.Store for testing.
type MockProductStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product

	FindErr error // returned by FindByID when set
}

func NewMockProductStore() *MockProductStore {
	return &MockProductStore{products: make(map[string]catalog.Product)}
}

func (m *MockProductStore) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	found := p
	return &found, nil
}

func (m *MockProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProductStore) Save(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *MockProductStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

// SeedProduct inserts a product directly.
func (m *MockProductStore) SeedProduct(p catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}
