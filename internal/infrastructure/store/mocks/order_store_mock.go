package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-order-sync/internal/domain/order"
)

// MockOrderStore is an in-memory order.Store for testing. Mutate runs
// the function under the store lock, mirroring the row-lock semantics
// of the real store.
type MockOrderStore struct {
	mu     sync.Mutex
	orders map[string]order.Order

	MutateCalls []string
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{orders: make(map[string]order.Order)}
}

func (m *MockOrderStore) Insert(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *MockOrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	found := o
	return &found, nil
}

func (m *MockOrderStore) FindByIDAndUser(ctx context.Context, id, userID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	found := o
	return &found, nil
}

func (m *MockOrderStore) FindByUser(ctx context.Context, userID string) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderStore) Mutate(ctx context.Context, id string, apply func(o *order.Order) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MutateCalls = append(m.MutateCalls, id)

	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if err := apply(&o); err != nil {
		return err
	}
	m.orders[id] = o
	return nil
}

func (m *MockOrderStore) FindExpiredPending(ctx context.Context, asOf time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, o := range m.orders {
		if o.Status == order.StatusPending && o.ValidationDeadline.Before(asOf) {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

// SeedOrder inserts an order directly.
func (m *MockOrderStore) SeedOrder(o order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// Order returns a copy of the stored order for assertions.
func (m *MockOrderStore) Order(id string) (order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}
