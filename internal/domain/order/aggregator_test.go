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

func newTestAggregator() (*order.Aggregator, *mocks.MockOrderStore) {
	store := mocks.NewMockOrderStore()
	return order.NewAggregator(store, zap.NewNop()), store
}

func seedPending(store *mocks.MockOrderStore, id string) {
	now := time.Now()
	store.SeedOrder(order.Order{
		ID:                 id,
		UserID:             "user-1",
		Status:             order.StatusPending,
		ValidationDeadline: now.Add(5 * time.Minute),
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func cartResult(t *testing.T, orderID string, isValid bool, errs []string) event.Envelope {
	t.Helper()
	env, err := event.New(cart.EventCartValidationCompleted, orderID, cart.AggregateType, cart.Source,
		cart.ValidationCompleted{
			OrderID:           orderID,
			UserID:            "user-1",
			IsValid:           isValid,
			ValidationErrors:  errs,
			RequestingService: order.Source,
		})
	require.NoError(t, err)
	return env.Correlated("corr-1")
}

func stockResult(t *testing.T, orderID string, res catalog.ValidationCompleted) event.Envelope {
	t.Helper()
	res.RequestID = orderID
	res.RequestingService = order.Source
	env, err := event.New(catalog.EventProductValidationCompleted, orderID, catalog.AggregateType, catalog.Source, res)
	require.NoError(t, err)
	return env.Correlated("corr-1")
}

func TestBothValid_Confirms(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartResult(t, "order-1", true, nil)))

	o, _ := store.Order("order-1")
	assert.Equal(t, order.StatusPending, o.Status, "one answer alone does not settle")
	require.NotNil(t, o.CartValidated)
	assert.True(t, *o.CartValidated)
	assert.Nil(t, o.ValidationCompletedAt)

	require.NoError(t, agg.HandleProductValidationCompleted(ctx,
		stockResult(t, "order-1", catalog.ValidationCompleted{IsValid: true})))

	o, _ = store.Order("order-1")
	assert.Equal(t, order.StatusConfirmed, o.Status)
	require.NotNil(t, o.StockValidated)
	assert.True(t, *o.StockValidated)
	assert.NotNil(t, o.ValidationCompletedAt, "timestamp is stamped when the status leaves PENDING")
	assert.Empty(t, o.ValidationErrors)
}

func TestArrivalOrderDoesNotMatter(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	require.NoError(t, agg.HandleProductValidationCompleted(ctx,
		stockResult(t, "order-1", catalog.ValidationCompleted{IsValid: true})))
	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartResult(t, "order-1", true, nil)))

	o, _ := store.Order("order-1")
	assert.Equal(t, order.StatusConfirmed, o.Status)
}

func TestNegativeAnswerCancelsImmediately(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	errs := []string{"Quantity mismatch for product prod-1. Expected: 5, Found: 2"}
	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartResult(t, "order-1", false, errs)))

	o, _ := store.Order("order-1")
	assert.Equal(t, order.StatusCancelled, o.Status, "cancellation does not wait for the other answer")
	assert.Equal(t, errs, o.ValidationErrors)
	assert.NotNil(t, o.ValidationCompletedAt)
}

func TestLateResultRecordsFlagOnly(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartResult(t, "order-1", false, []string{"bad cart"})))

	o, _ := store.Order("order-1")
	require.Equal(t, order.StatusCancelled, o.Status)
	settledAt := o.ValidationCompletedAt

	// The second answer arrives after the order settled.
	require.NoError(t, agg.HandleProductValidationCompleted(ctx,
		stockResult(t, "order-1", catalog.ValidationCompleted{IsValid: true})))

	o, _ = store.Order("order-1")
	assert.Equal(t, order.StatusCancelled, o.Status, "outcome is untouched")
	assert.Equal(t, settledAt, o.ValidationCompletedAt, "timestamp is untouched")
	require.NotNil(t, o.StockValidated)
	assert.True(t, *o.StockValidated, "the flag is still recorded")
}

func TestRedeliveryIsIdempotent(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	cartEnv := cartResult(t, "order-1", true, nil)
	stockEnv := stockResult(t, "order-1", catalog.ValidationCompleted{IsValid: true})

	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartEnv))
	require.NoError(t, agg.HandleProductValidationCompleted(ctx, stockEnv))

	o, _ := store.Order("order-1")
	settledAt := o.ValidationCompletedAt
	require.Equal(t, order.StatusConfirmed, o.Status)

	// At-least-once delivery replays both answers.
	require.NoError(t, agg.HandleCartValidationCompleted(ctx, cartEnv))
	require.NoError(t, agg.HandleProductValidationCompleted(ctx, stockEnv))

	o, _ = store.Order("order-1")
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, settledAt, o.ValidationCompletedAt)
	assert.Empty(t, o.ValidationErrors)
}

func TestUnknownOrderIsAcknowledged(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()

	err := agg.HandleCartValidationCompleted(ctx, cartResult(t, "no-such-order", true, nil))
	assert.NoError(t, err, "unknown order ids are dropped, not redelivered")
	assert.Equal(t, []string{"no-such-order"}, store.MutateCalls)
}

func TestStockFailureErrorMessages(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	require.NoError(t, agg.HandleProductValidationCompleted(ctx, stockResult(t, "order-1",
		catalog.ValidationCompleted{
			IsValid:         false,
			InvalidProducts: []string{"prod-gone"},
			UnavailableProducts: []catalog.ProductAvailability{
				{ProductID: "prod-short", AvailableQuantity: 1, RequestedQuantity: 4},
			},
		})))

	o, _ := store.Order("order-1")
	assert.Equal(t, order.StatusCancelled, o.Status)
	assert.Equal(t, []string{
		"Product prod-gone is not available",
		"Insufficient stock for product prod-short. Requested: 4, Available: 1",
	}, o.ValidationErrors)
}

func TestStockFailureWithoutDetailGetsFallbackMessage(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()
	seedPending(store, "order-1")

	require.NoError(t, agg.HandleProductValidationCompleted(ctx, stockResult(t, "order-1",
		catalog.ValidationCompleted{IsValid: false})))

	o, _ := store.Order("order-1")
	assert.Equal(t, []string{"Stock validation failed"}, o.ValidationErrors)
}

func TestUndecodableResultIsDiscarded(t *testing.T) {
	agg, store := newTestAggregator()
	ctx := context.Background()

	env, err := event.New(cart.EventCartValidationCompleted, "order-1", cart.AggregateType, cart.Source, "garbage")
	require.NoError(t, err)

	assert.NoError(t, agg.HandleCartValidationCompleted(ctx, env))
	assert.Empty(t, store.MutateCalls)
}
