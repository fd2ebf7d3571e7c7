package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/order"
	"github.com/example/ec-order-sync/internal/infrastructure/store/mocks"
)

func TestSweep_CancelsExpiredPending(t *testing.T) {
	store := mocks.NewMockOrderStore()
	monitor := order.NewTimeoutMonitor(store, time.Second, zap.NewNop())
	ctx := context.Background()

	now := time.Now()
	store.SeedOrder(order.Order{
		ID: "expired", UserID: "user-1", Status: order.StatusPending,
		ValidationDeadline: now.Add(-time.Minute),
	})
	store.SeedOrder(order.Order{
		ID: "fresh", UserID: "user-1", Status: order.StatusPending,
		ValidationDeadline: now.Add(time.Minute),
	})
	confirmedAt := now.Add(-2 * time.Minute)
	store.SeedOrder(order.Order{
		ID: "settled", UserID: "user-1", Status: order.StatusConfirmed,
		ValidationDeadline:    now.Add(-time.Minute),
		ValidationCompletedAt: &confirmedAt,
	})

	require.NoError(t, monitor.Sweep(ctx))

	expired, _ := store.Order("expired")
	assert.Equal(t, order.StatusCancelled, expired.Status)
	assert.Contains(t, expired.ValidationErrors, order.TimeoutReason)
	assert.NotNil(t, expired.ValidationCompletedAt)

	fresh, _ := store.Order("fresh")
	assert.Equal(t, order.StatusPending, fresh.Status, "orders inside the window are untouched")

	settled, _ := store.Order("settled")
	assert.Equal(t, order.StatusConfirmed, settled.Status, "settled orders are never re-opened")
	assert.Equal(t, &confirmedAt, settled.ValidationCompletedAt)
}

func TestSweep_RepeatedRunsAreIdempotent(t *testing.T) {
	store := mocks.NewMockOrderStore()
	monitor := order.NewTimeoutMonitor(store, time.Second, zap.NewNop())
	ctx := context.Background()

	store.SeedOrder(order.Order{
		ID: "expired", UserID: "user-1", Status: order.StatusPending,
		ValidationDeadline: time.Now().Add(-time.Minute),
	})

	require.NoError(t, monitor.Sweep(ctx))
	require.NoError(t, monitor.Sweep(ctx))

	o, _ := store.Order("expired")
	assert.Equal(t, order.StatusCancelled, o.Status)
	assert.Equal(t, []string{order.TimeoutReason}, o.ValidationErrors, "the reason is recorded once")
}
