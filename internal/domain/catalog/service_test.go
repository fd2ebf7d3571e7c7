package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/event"
	"github.com/example/ec-order-sync/internal/infrastructure/store/mocks"
)

func newTestService() (*catalog.Service, *mocks.MockProductStore, *mocks.RecordingPublisher) {
	store := mocks.NewMockProductStore()
	bus := mocks.NewRecordingPublisher()
	svc := catalog.NewService(store, bus, zap.NewNop())
	return svc, store, bus
}

func TestCreate_DefaultsAndEvent(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, catalog.Product{Name: "Widget", Price: 1500, StockQuantity: 10})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Active)
	assert.Equal(t, "USD", p.Currency)

	envs := bus.ByType(catalog.EventProductUpdated)
	require.Len(t, envs, 1)
	assert.Equal(t, p.ID, envs[0].AggregateID)
	assert.Equal(t, catalog.AggregateType, envs[0].AggregateType)

	payload, err := event.Decode[catalog.ProductUpdated](envs[0])
	require.NoError(t, err)
	assert.Equal(t, "Widget", payload.Name)
	assert.Equal(t, 1500, payload.Price)
	assert.True(t, payload.Active)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{Price: 100})
	assert.ErrorIs(t, err, catalog.ErrInvalidName)

	_, err = svc.Create(ctx, catalog.Product{Name: "Widget", Price: 0})
	assert.ErrorIs(t, err, catalog.ErrInvalidPrice)
}

func TestUpdate_EmitsFullState(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, catalog.Product{Name: "Widget", Price: 1500, StockQuantity: 10})
	require.NoError(t, err)
	bus.Reset()

	updated, err := svc.Update(ctx, p.ID, catalog.Product{
		Name: "Widget v2", Price: 1800, StockQuantity: 4, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)
	assert.Equal(t, "USD", updated.Currency, "currency survives when not supplied")

	envs := bus.ByType(catalog.EventProductUpdated)
	require.Len(t, envs, 1)
	payload, err := event.Decode[catalog.ProductUpdated](envs[0])
	require.NoError(t, err)
	assert.Equal(t, 1800, payload.Price)
	assert.Equal(t, 4, payload.StockQuantity)
}

func TestUpdate_UnknownProduct(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Update(context.Background(), "missing", catalog.Product{Name: "X", Price: 1})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestDelete_EmitsProductDeleted(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, catalog.Product{Name: "Widget", Price: 1500})
	require.NoError(t, err)
	bus.Reset()

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = store.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	envs := bus.ByType(catalog.EventProductDeleted)
	require.Len(t, envs, 1)
	payload, err := event.Decode[catalog.ProductDeleted](envs[0])
	require.NoError(t, err)
	assert.Equal(t, p.ID, payload.ProductID)
}
