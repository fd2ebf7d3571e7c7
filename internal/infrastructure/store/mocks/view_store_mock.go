package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/readmodel"
)

// MockViewStore is an in-memory projection.ViewStore for testing,
// keyed on cart_item_id like the real stores.
type MockViewStore struct {
	mu    sync.RWMutex
	views map[string]readmodel.CartItemView

	UpsertCalls []readmodel.CartItemView
	DeleteCalls []string
}

func NewMockViewStore() *MockViewStore {
	return &MockViewStore{views: make(map[string]readmodel.CartItemView)}
}

func (m *MockViewStore) Upsert(ctx context.Context, v *readmodel.CartItemView) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls = append(m.UpsertCalls, *v)
	m.views[v.CartItemID] = *v
	return nil
}

func (m *MockViewStore) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.views[cartItemID]
	if !ok {
		return false, nil
	}
	v.Quantity = quantity
	v.UpdatedAt = time.Now()
	m.views[cartItemID] = v
	return true, nil
}

func (m *MockViewStore) Delete(ctx context.Context, cartItemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, cartItemID)
	delete(m.views, cartItemID)
	return nil
}

func (m *MockViewStore) UpdateProductDetails(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, v := range m.views {
		if v.ProductID != p.ID {
			continue
		}
		v.ProductName = p.Name
		v.ProductDescription = p.Description
		v.ProductPrice = p.Price
		v.ProductImageURL = p.ImageURL
		v.ProductCategory = p.Category
		v.ProductActive = p.Active
		v.Available = p.Active
		v.UpdatedAt = time.Now()
		m.views[id] = v
	}
	return nil
}

func (m *MockViewStore) MarkProductUnavailable(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, v := range m.views {
		if v.ProductID != productID {
			continue
		}
		v.ProductActive = false
		v.Available = false
		v.UpdatedAt = time.Now()
		m.views[id] = v
	}
	return nil
}

func (m *MockViewStore) FindByUserID(ctx context.Context, userID string) ([]readmodel.CartItemView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []readmodel.CartItemView
	for _, v := range m.views {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

// View returns a copy of the stored row for assertions.
func (m *MockViewStore) View(cartItemID string) (readmodel.CartItemView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[cartItemID]
	return v, ok
}

// SeedView inserts a row directly without recording the call.
func (m *MockViewStore) SeedView(v readmodel.CartItemView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[v.CartItemID] = v
}
