package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/cart"
	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/event"
	"github.com/example/ec-order-sync/internal/readmodel"
)

// ViewStore persists CartItemView rows. UpdateProductDetails must be a
// single idempotent bulk write keyed on product id, not a row-by-row
// read-modify-write, so redelivery cannot interleave stale values.
type ViewStore interface {
	Upsert(ctx context.Context, view *readmodel.CartItemView) error
	UpdateQuantity(ctx context.Context, cartItemID string, quantity int) (bool, error)
	Delete(ctx context.Context, cartItemID string) error
	UpdateProductDetails(ctx context.Context, p *catalog.Product) error
	MarkProductUnavailable(ctx context.Context, productID string) error
}

// ProductLookup is the cache-then-source collaborator used while
// projecting. Entries are advisory; the catalog store stays the source
// of truth and a miss falls back to a live fetch.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
	Refresh(ctx context.Context, p *catalog.Product) error
	Invalidate(ctx context.Context, id string) error
}

// Projector maintains the denormalized cart item view from cart-domain
// and product-domain events. Events for one cart item share an
// ordering key, so a single worker sees that item's history in order;
// product events interleave freely with cart events for other items.
type Projector struct {
	views    ViewStore
	products ProductLookup
	logger   *zap.Logger
}

func NewProjector(views ViewStore, products ProductLookup, logger *zap.Logger) *Projector {
	return &Projector{views: views, products: products, logger: logger}
}

// RegisterCartHandlers wires the cart-events subscriptions.
func (p *Projector) RegisterCartHandlers(d *event.Dispatcher) {
	d.On(cart.EventCartItemAdded, p.HandleCartItemAdded)
	d.On(cart.EventCartItemUpdated, p.HandleCartItemUpdated)
	d.On(cart.EventCartItemRemoved, p.HandleCartItemRemoved)
}

// RegisterProductHandlers wires the product-events subscriptions.
func (p *Projector) RegisterProductHandlers(d *event.Dispatcher) {
	d.On(catalog.EventProductUpdated, p.HandleProductUpdated)
	d.On(catalog.EventProductDeleted, p.HandleProductDeleted)
}

func (p *Projector) HandleCartItemAdded(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode[cart.ItemAdded](env)
	if err != nil {
		p.logger.Warn("discarding undecodable cart event",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	return p.applyAdded(ctx, e)
}

func (p *Projector) applyAdded(ctx context.Context, e cart.ItemAdded) error {
	product, err := p.products.Product(ctx, e.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			// The write-store item exists but stays invisible to reads
			// until a later event retries the build.
			p.logger.Warn("product not found, dropping view build",
				zap.String("cart_item_id", e.CartItemID),
				zap.String("product_id", e.ProductID))
			return nil
		}
		return fmt.Errorf("resolve product %s: %w", e.ProductID, err)
	}

	view := &readmodel.CartItemView{
		ID:                 uuid.New().String(),
		CartItemID:         e.CartItemID,
		CartID:             e.CartID,
		UserID:             e.UserID,
		ProductID:          e.ProductID,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		ProductPrice:       product.Price,
		ProductImageURL:    product.ImageURL,
		ProductCategory:    product.Category,
		ProductActive:      product.Active,
		Available:          product.Active,
		Quantity:           e.Quantity,
		UpdatedAt:          time.Now(),
	}
	if err := p.views.Upsert(ctx, view); err != nil {
		return fmt.Errorf("upsert view for cart item %s: %w", e.CartItemID, err)
	}

	p.logger.Info("cart item view created",
		zap.String("cart_item_id", e.CartItemID),
		zap.String("product_id", e.ProductID))
	return nil
}

// HandleCartItemUpdated sets the absolute quantity on the view row.
// A missing row self-heals: the update carries everything an added
// event does, so the added path is re-run from its fields.
func (p *Projector) HandleCartItemUpdated(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode[cart.ItemUpdated](env)
	if err != nil {
		p.logger.Warn("discarding undecodable cart event",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	updated, err := p.views.UpdateQuantity(ctx, e.CartItemID, e.Quantity)
	if err != nil {
		return fmt.Errorf("update view quantity for cart item %s: %w", e.CartItemID, err)
	}
	if updated {
		return nil
	}

	p.logger.Warn("view row missing on update, rebuilding",
		zap.String("cart_item_id", e.CartItemID))
	return p.applyAdded(ctx, cart.ItemAdded(e))
}

// HandleCartItemRemoved deletes the view row; absence is tolerated
// (already removed, or never created).
func (p *Projector) HandleCartItemRemoved(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode[cart.ItemRemoved](env)
	if err != nil {
		p.logger.Warn("discarding undecodable cart event",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if err := p.views.Delete(ctx, e.CartItemID); err != nil {
		return fmt.Errorf("delete view for cart item %s: %w", e.CartItemID, err)
	}
	return nil
}

// HandleProductUpdated fans the new product state out to every view
// row referencing it and refreshes the lookup cache entry.
func (p *Projector) HandleProductUpdated(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode[catalog.ProductUpdated](env)
	if err != nil {
		p.logger.Warn("discarding undecodable product event",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	product := &catalog.Product{
		ID:            e.ProductID,
		Name:          e.Name,
		Description:   e.Description,
		Price:         e.Price,
		Currency:      e.Currency,
		StockQuantity: e.StockQuantity,
		Category:      e.Category,
		ImageURL:      e.ImageURL,
		Active:        e.Active,
	}

	if err := p.products.Refresh(ctx, product); err != nil {
		// The cache is advisory; the bulk view update is what matters.
		p.logger.Warn("cache refresh failed",
			zap.String("product_id", e.ProductID), zap.Error(err))
	}

	if err := p.views.UpdateProductDetails(ctx, product); err != nil {
		return fmt.Errorf("bulk update views for product %s: %w", e.ProductID, err)
	}

	p.logger.Info("cart item views updated for product",
		zap.String("product_id", e.ProductID))
	return nil
}

// HandleProductDeleted marks referencing rows unavailable rather than
// deleting them, so users see the item and remove it themselves.
func (p *Projector) HandleProductDeleted(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode[catalog.ProductDeleted](env)
	if err != nil {
		p.logger.Warn("discarding undecodable product event",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	if err := p.views.MarkProductUnavailable(ctx, e.ProductID); err != nil {
		return fmt.Errorf("mark views unavailable for product %s: %w", e.ProductID, err)
	}
	if err := p.products.Invalidate(ctx, e.ProductID); err != nil {
		p.logger.Warn("cache invalidation failed",
			zap.String("product_id", e.ProductID), zap.Error(err))
	}
	return nil
}
