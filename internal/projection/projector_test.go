package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/cart"
	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/event"
	"github.com/example/ec-order-sync/internal/infrastructure/store/mocks"
)

func newTestProjector() (*Projector, *mocks.MockViewStore, *mocks.MockProductStore, *mocks.MockProductLookup) {
	views := mocks.NewMockViewStore()
	products := mocks.NewMockProductStore()
	lookup := mocks.NewMockProductLookup(products)
	p := NewProjector(views, lookup, zap.NewNop())
	return p, views, products, lookup
}

func seedProduct(products *mocks.MockProductStore, id string, active bool) {
	products.SeedProduct(catalog.Product{
		ID: id, Name: "Widget", Description: "A widget", Price: 1500,
		Currency: "USD", StockQuantity: 10, Category: "tools",
		ImageURL: "http://img/widget.png", Active: active,
	})
}

func itemAddedEnvelope(t *testing.T, e cart.ItemAdded) event.Envelope {
	t.Helper()
	env, err := event.New(cart.EventCartItemAdded, e.CartItemID, cart.AggregateType, cart.Source, e)
	require.NoError(t, err)
	return env
}

func itemUpdatedEnvelope(t *testing.T, e cart.ItemUpdated) event.Envelope {
	t.Helper()
	env, err := event.New(cart.EventCartItemUpdated, e.CartItemID, cart.AggregateType, cart.Source, e)
	require.NoError(t, err)
	return env
}

func TestHandleCartItemAdded_BuildsView(t *testing.T) {
	p, views, products, _ := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	env := itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 2,
	})
	require.NoError(t, p.HandleCartItemAdded(ctx, env))

	v, ok := views.View("item-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", v.UserID)
	assert.Equal(t, "Widget", v.ProductName)
	assert.Equal(t, 1500, v.ProductPrice)
	assert.Equal(t, 2, v.Quantity)
	assert.True(t, v.Available)
	assert.NotEmpty(t, v.ID)
}

func TestHandleCartItemAdded_MissingProductDropsEvent(t *testing.T) {
	p, views, _, _ := newTestProjector()
	ctx := context.Background()

	env := itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-unknown", Quantity: 2,
	})

	require.NoError(t, p.HandleCartItemAdded(ctx, env), "the event is acknowledged, not redelivered")
	_, ok := views.View("item-1")
	assert.False(t, ok)
}

func TestHandleCartItemAdded_ReplayConverges(t *testing.T) {
	p, views, products, _ := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	env := itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 2,
	})
	require.NoError(t, p.HandleCartItemAdded(ctx, env))
	require.NoError(t, p.HandleCartItemAdded(ctx, env))

	assert.Len(t, views.UpsertCalls, 2)
	v, ok := views.View("item-1")
	require.True(t, ok)
	assert.Equal(t, 2, v.Quantity, "replay lands on the same row with the same values")

	list, err := views.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHandleCartItemUpdated_SetsAbsoluteQuantity(t *testing.T) {
	p, views, products, _ := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 2,
	})))

	require.NoError(t, p.HandleCartItemUpdated(ctx, itemUpdatedEnvelope(t, cart.ItemUpdated{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 9,
	})))

	v, _ := views.View("item-1")
	assert.Equal(t, 9, v.Quantity)
}

func TestHandleCartItemUpdated_MissingRowSelfHeals(t *testing.T) {
	p, views, products, _ := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	// No added event was ever projected for this item.
	require.NoError(t, p.HandleCartItemUpdated(ctx, itemUpdatedEnvelope(t, cart.ItemUpdated{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 3,
	})))

	v, ok := views.View("item-1")
	require.True(t, ok, "the update rebuilt the row from its own fields")
	assert.Equal(t, 3, v.Quantity)
	assert.Equal(t, "Widget", v.ProductName)
}

func TestHandleCartItemRemoved_ToleratesAbsence(t *testing.T) {
	p, views, products, _ := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1",
		ProductID: "prod-1", Quantity: 2,
	})))

	removed, err := event.New(cart.EventCartItemRemoved, "item-1", cart.AggregateType, cart.Source,
		cart.ItemRemoved{CartItemID: "item-1", CartID: "cart-user-1", UserID: "user-1", ProductID: "prod-1"})
	require.NoError(t, err)

	require.NoError(t, p.HandleCartItemRemoved(ctx, removed))
	_, ok := views.View("item-1")
	assert.False(t, ok)

	// Redelivered removal of an already absent row still acknowledges.
	assert.NoError(t, p.HandleCartItemRemoved(ctx, removed))
}

func TestHandleProductUpdated_FansOutAndRefreshesCache(t *testing.T) {
	p, views, products, lookup := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)
	seedProduct(products, "prod-2", true)

	for i, item := range []string{"item-1", "item-2"} {
		require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
			CartItemID: item, CartID: "cart-u", UserID: "user-1",
			ProductID: "prod-1", Quantity: i + 1,
		})))
	}
	require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-3", CartID: "cart-u", UserID: "user-1",
		ProductID: "prod-2", Quantity: 1,
	})))

	updated := catalog.ProductUpdated{
		ProductID: "prod-1", Name: "Widget v2", Description: "Better",
		Price: 1800, Currency: "USD", StockQuantity: 5,
		Category: "tools", ImageURL: "http://img/v2.png", Active: true,
	}
	env, err := event.New(catalog.EventProductUpdated, "prod-1", catalog.AggregateType, catalog.Source, updated)
	require.NoError(t, err)

	require.NoError(t, p.HandleProductUpdated(ctx, env))

	for _, item := range []string{"item-1", "item-2"} {
		v, _ := views.View(item)
		assert.Equal(t, "Widget v2", v.ProductName)
		assert.Equal(t, 1800, v.ProductPrice)
	}
	untouched, _ := views.View("item-3")
	assert.Equal(t, "Widget", untouched.ProductName, "other products' rows are untouched")

	require.Len(t, lookup.RefreshCalls, 1)
	assert.Equal(t, "Widget v2", lookup.RefreshCalls[0].Name)

	// Redelivery converges on the same values.
	require.NoError(t, p.HandleProductUpdated(ctx, env))
	v, _ := views.View("item-1")
	assert.Equal(t, 1800, v.ProductPrice)
}

func TestHandleProductUpdated_CacheFailureDoesNotBlockViews(t *testing.T) {
	p, views, products, lookup := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)
	lookup.RefreshErr = assert.AnError

	require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-u", UserID: "user-1",
		ProductID: "prod-1", Quantity: 1,
	})))

	env, err := event.New(catalog.EventProductUpdated, "prod-1", catalog.AggregateType, catalog.Source,
		catalog.ProductUpdated{ProductID: "prod-1", Name: "Widget v2", Price: 1800, Active: true})
	require.NoError(t, err)

	require.NoError(t, p.HandleProductUpdated(ctx, env))
	v, _ := views.View("item-1")
	assert.Equal(t, "Widget v2", v.ProductName)
}

func TestHandleProductDeleted_MarksUnavailableAndInvalidates(t *testing.T) {
	p, views, products, lookup := newTestProjector()
	ctx := context.Background()
	seedProduct(products, "prod-1", true)

	require.NoError(t, p.HandleCartItemAdded(ctx, itemAddedEnvelope(t, cart.ItemAdded{
		CartItemID: "item-1", CartID: "cart-u", UserID: "user-1",
		ProductID: "prod-1", Quantity: 1,
	})))

	env, err := event.New(catalog.EventProductDeleted, "prod-1", catalog.AggregateType, catalog.Source,
		catalog.ProductDeleted{ProductID: "prod-1"})
	require.NoError(t, err)

	require.NoError(t, p.HandleProductDeleted(ctx, env))

	v, ok := views.View("item-1")
	require.True(t, ok, "the row survives so the user can remove it")
	assert.False(t, v.Available)
	assert.False(t, v.ProductActive)

	assert.Equal(t, []string{"prod-1"}, lookup.InvalidateCalls)
}

func TestUndecodableEventsAreDiscarded(t *testing.T) {
	p, views, _, _ := newTestProjector()
	ctx := context.Background()

	env, err := event.New(cart.EventCartItemAdded, "item-1", cart.AggregateType, cart.Source, []int{1, 2})
	require.NoError(t, err)

	assert.NoError(t, p.HandleCartItemAdded(ctx, env))
	assert.Empty(t, views.UpsertCalls)
}
