package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-sync/internal/domain/cart"
)

// MockCartStore is an in-memory cart.Store for testing.
type MockCartStore struct {
	mu    sync.RWMutex
	items map[string]cart.Item // item id -> item

	SaveCalls   []cart.Item
	DeleteCalls []string
}

func NewMockCartStore() *MockCartStore {
	return &MockCartStore{items: make(map[string]cart.Item)}
}

func (m *MockCartStore) FindByUserID(ctx context.Context, userID string) ([]cart.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []cart.Item
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockCartStore) FindByUserAndProduct(ctx context.Context, userID, productID string) (*cart.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			found := item
			return &found, nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (m *MockCartStore) FindByUserAndID(ctx context.Context, userID, itemID string) (*cart.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[itemID]
	if !ok || item.UserID != userID {
		return nil, cart.ErrItemNotFound
	}
	found := item
	return &found, nil
}

func (m *MockCartStore) Save(ctx context.Context, item *cart.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, *item)
	m.items[item.ID] = *item
	return nil
}

func (m *MockCartStore) Delete(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, itemID)
	delete(m.items, itemID)
	return nil
}

func (m *MockCartStore) DeleteByUserID(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

// SeedItem inserts an item directly without recording the call.
func (m *MockCartStore) SeedItem(item cart.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}
