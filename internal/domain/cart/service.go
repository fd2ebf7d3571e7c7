package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/event"
)

const (
	AggregateType = "Cart"
	Source        = "cart-service"
)

var (
	ErrInvalidProduct  = errors.New("product id is required")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Item is the authoritative write-store line item. The read-side
// CartItemView is derived from the events this package emits and is
// never consulted by the write path.
type Item struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the write-store repository.
type Store interface {
	FindByUserID(ctx context.Context, userID string) ([]Item, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*Item, error)
	FindByUserAndID(ctx context.Context, userID, itemID string) (*Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, itemID string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// IDFor returns the cart id for a user.
func IDFor(userID string) string {
	return "cart-" + userID
}

// Service owns write-store mutations and emits the corresponding
// cart-domain events.
type Service struct {
	store  Store
	bus    event.Publisher
	logger *zap.Logger
}

func NewService(store Store, bus event.Publisher, logger *zap.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

// AddItem creates a line item for the product, or merges the quantity
// into the existing one.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Item, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.store.FindByUserAndProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}

	now := time.Now()
	if existing != nil {
		existing.Quantity += quantity
		existing.UpdatedAt = now
		if err := s.store.Save(ctx, existing); err != nil {
			return nil, err
		}
		if err := s.publishItemUpdated(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &Item{
		ID:        uuid.New().String(),
		CartID:    IDFor(userID),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, item); err != nil {
		return nil, err
	}

	env, err := event.New(EventCartItemAdded, item.ID, AggregateType, Source, ItemAdded{
		CartItemID: item.ID,
		CartID:     item.CartID,
		UserID:     item.UserID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
	})
	if err != nil {
		return nil, err
	}
	if err := s.bus.Publish(ctx, env); err != nil {
		return nil, err
	}

	s.logger.Info("cart item added",
		zap.String("cart_item_id", item.ID),
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return item, nil
}

// UpdateQuantity sets an absolute quantity. Zero or negative removes
// the item.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	item, err := s.store.FindByUserAndID(ctx, userID, itemID)
	if err != nil {
		return err
	}

	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, item); err != nil {
		return err
	}
	return s.publishItemUpdated(ctx, item)
}

// RemoveItem deletes a line item.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	item, err := s.store.FindByUserAndID(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, item.ID); err != nil {
		return err
	}
	return s.publishItemRemoved(ctx, item)
}

// Clear removes every line item in the user's cart, emitting one
// removed event per item.
func (s *Service) Clear(ctx context.Context, userID string) error {
	items, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	for i := range items {
		if err := s.publishItemRemoved(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// ItemsByUser exposes the write store to the validation responder and
// the API.
func (s *Service) ItemsByUser(ctx context.Context, userID string) ([]Item, error) {
	return s.store.FindByUserID(ctx, userID)
}

func (s *Service) publishItemUpdated(ctx context.Context, item *Item) error {
	env, err := event.New(EventCartItemUpdated, item.ID, AggregateType, Source, ItemUpdated{
		CartItemID: item.ID,
		CartID:     item.CartID,
		UserID:     item.UserID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
	})
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, env)
}

func (s *Service) publishItemRemoved(ctx context.Context, item *Item) error {
	env, err := event.New(EventCartItemRemoved, item.ID, AggregateType, Source, ItemRemoved{
		CartItemID: item.ID,
		CartID:     item.CartID,
		UserID:     item.UserID,
		ProductID:  item.ProductID,
	})
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, env)
}
