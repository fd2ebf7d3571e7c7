package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/cart"
	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/domain/order"
	"github.com/example/ec-order-sync/internal/event"
	"github.com/example/ec-order-sync/internal/infrastructure/store/mocks"
)

func newTestOrderService() (*order.Service, *mocks.MockOrderStore, *mocks.MockProductStore, *mocks.RecordingPublisher) {
	store := mocks.NewMockOrderStore()
	products := mocks.NewMockProductStore()
	bus := mocks.NewRecordingPublisher()
	svc := order.NewService(store, mocks.NewMockProductLookup(products), bus, time.Minute, zap.NewNop())
	return svc, store, products, bus
}

func TestCreate_PersistsPendingAndPublishesSaga(t *testing.T) {
	svc, store, products, bus := newTestOrderService()
	ctx := context.Background()

	products.SeedProduct(catalog.Product{ID: "prod-1", Name: "Widget", Price: 1500, StockQuantity: 10, Active: true})
	products.SeedProduct(catalog.Product{ID: "prod-2", Name: "Gear", Price: 500, StockQuantity: 10, Active: true})

	before := time.Now()
	o, err := svc.Create(ctx, "user-1", []order.ItemRequest{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Nil(t, o.CartValidated)
	assert.Nil(t, o.StockValidated)
	assert.Nil(t, o.ValidationCompletedAt)
	assert.Equal(t, 3500, o.TotalAmount)
	assert.True(t, o.ValidationDeadline.After(before), "deadline is set in the future")

	stored, ok := store.Order(o.ID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, stored.Status)

	created := bus.ByType(order.EventOrderCreated)
	cartReqs := bus.ByType(cart.EventCartValidationRequested)
	productReqs := bus.ByType(catalog.EventProductValidationRequested)
	require.Len(t, created, 1)
	require.Len(t, cartReqs, 1)
	require.Len(t, productReqs, 1)

	// One correlation id spans the whole saga instance.
	assert.Equal(t, created[0].EventID, created[0].CorrelationID)
	assert.Equal(t, created[0].CorrelationID, cartReqs[0].CorrelationID)
	assert.Equal(t, created[0].CorrelationID, productReqs[0].CorrelationID)
	assert.Equal(t, created[0].EventID, cartReqs[0].CausationID)
	assert.Equal(t, created[0].EventID, productReqs[0].CausationID)

	// The requests route to their owners' channels.
	assert.Equal(t, cart.AggregateType, cartReqs[0].AggregateType)
	assert.Equal(t, catalog.AggregateType, productReqs[0].AggregateType)

	cartReq, err := event.Decode[cart.ValidationRequested](cartReqs[0])
	require.NoError(t, err)
	assert.Equal(t, o.ID, cartReq.OrderID)
	assert.Equal(t, "user-1", cartReq.UserID)
	assert.Len(t, cartReq.Items, 2)

	productReq, err := event.Decode[catalog.ValidationRequested](productReqs[0])
	require.NoError(t, err)
	assert.Equal(t, o.ID, productReq.RequestID)
	assert.ElementsMatch(t, []string{"prod-1", "prod-2"}, productReq.ProductIDs)
	assert.Len(t, productReq.RequiredQuantities, 2)
}

func TestCreate_UnknownProductPricedAtZero(t *testing.T) {
	svc, _, _, bus := newTestOrderService()
	ctx := context.Background()

	o, err := svc.Create(ctx, "user-1", []order.ItemRequest{
		{ProductID: "prod-unknown", Quantity: 2},
	})

	require.NoError(t, err, "pricing does not reject; the validation answer cancels the order")
	assert.Equal(t, 0, o.TotalAmount)
	assert.Len(t, bus.ByType(catalog.EventProductValidationRequested), 1)
}

func TestCreate_RejectsEmptyOrInvalidItems(t *testing.T) {
	svc, _, _, _ := newTestOrderService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", nil)
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	_, err = svc.Create(ctx, "user-1", []order.ItemRequest{{ProductID: "", Quantity: 1}})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	_, err = svc.Create(ctx, "user-1", []order.ItemRequest{{ProductID: "prod-1", Quantity: 0}})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)
}

func TestCancel_PendingOrder(t *testing.T) {
	svc, store, products, _ := newTestOrderService()
	ctx := context.Background()

	products.SeedProduct(catalog.Product{ID: "prod-1", Name: "Widget", Price: 1500, StockQuantity: 10, Active: true})
	o, err := svc.Create(ctx, "user-1", []order.ItemRequest{{ProductID: "prod-1", Quantity: 1}})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, o.ID, "user-1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.ValidationErrors, "changed my mind")
	assert.NotNil(t, cancelled.ValidationCompletedAt)

	stored, _ := store.Order(o.ID)
	assert.Equal(t, order.StatusCancelled, stored.Status)
}

func TestCancel_WrongUser(t *testing.T) {
	svc, _, products, _ := newTestOrderService()
	ctx := context.Background()

	products.SeedProduct(catalog.Product{ID: "prod-1", Name: "Widget", Price: 1500, StockQuantity: 10, Active: true})
	o, err := svc.Create(ctx, "user-1", []order.ItemRequest{{ProductID: "prod-1", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, o.ID, "user-2", "")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestCancel_DeliveredOrderRefused(t *testing.T) {
	svc, store, _, _ := newTestOrderService()
	ctx := context.Background()

	store.SeedOrder(order.Order{ID: "order-1", UserID: "user-1", Status: order.StatusDelivered})

	_, err := svc.Cancel(ctx, "order-1", "user-1", "")
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}
