package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/cart"
	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/event"
)

// DefaultValidationWindow bounds how long an order may sit PENDING
// before the timeout monitor cancels it.
const DefaultValidationWindow = 5 * time.Minute

// ProductLookup resolves product details when pricing an order,
// typically the cache-then-source collaborator.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
}

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Service owns order state. Creation persists a PENDING order and
// emits the two validation requests; the caller gets the PENDING order
// back immediately and polls until the aggregator settles it.
type Service struct {
	store            Store
	products         ProductLookup
	bus              event.Publisher
	validationWindow time.Duration
	logger           *zap.Logger
}

func NewService(store Store, products ProductLookup, bus event.Publisher, validationWindow time.Duration, logger *zap.Logger) *Service {
	if validationWindow <= 0 {
		validationWindow = DefaultValidationWindow
	}
	return &Service{
		store:            store,
		products:         products,
		bus:              bus,
		validationWindow: validationWindow,
		logger:           logger,
	}
}

// Create persists the order and asks the cart and catalog owners, in
// parallel, to confirm it. Unknown products are priced at zero here;
// the product validation answer is what cancels such orders.
func (s *Service) Create(ctx context.Context, userID string, requested []ItemRequest) (*Order, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyOrder
	}

	now := time.Now()
	o := &Order{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Status:             StatusPending,
		ValidationDeadline: now.Add(s.validationWindow),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, r := range requested {
		if r.ProductID == "" || r.Quantity <= 0 {
			return nil, ErrEmptyOrder
		}
		item := Item{ProductID: r.ProductID, Quantity: r.Quantity}
		p, err := s.products.Product(ctx, r.ProductID)
		if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
			return nil, err
		}
		if p != nil {
			item.ProductName = p.Name
			item.Price = p.Price
		}
		o.Items = append(o.Items, item)
		o.TotalAmount += item.Price * item.Quantity
	}

	if err := s.store.Insert(ctx, o); err != nil {
		return nil, err
	}

	if err := s.publishValidationRequests(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created, validation requested",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(o.Items)),
		zap.Int("total_amount", o.TotalAmount))
	return o, nil
}

func (s *Service) publishValidationRequests(ctx context.Context, o *Order) error {
	created, err := event.New(EventOrderCreated, o.ID, AggregateType, Source, Created{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
	})
	if err != nil {
		return err
	}
	// One correlation id spans the whole saga instance.
	created = created.Correlated(created.EventID)

	cartItems := make([]cart.RequestedItem, len(o.Items))
	quantities := make([]catalog.ProductQuantity, len(o.Items))
	productIDs := make([]string, len(o.Items))
	for i, item := range o.Items {
		cartItems[i] = cart.RequestedItem{ProductID: item.ProductID, Quantity: item.Quantity}
		quantities[i] = catalog.ProductQuantity{ProductID: item.ProductID, RequiredQuantity: item.Quantity}
		productIDs[i] = item.ProductID
	}

	cartReq, err := event.New(cart.EventCartValidationRequested, o.ID, cart.AggregateType, Source,
		cart.ValidationRequested{
			OrderID:           o.ID,
			UserID:            o.UserID,
			Items:             cartItems,
			RequestingService: Source,
		})
	if err != nil {
		return err
	}

	productReq, err := event.New(catalog.EventProductValidationRequested, o.ID, catalog.AggregateType, Source,
		catalog.ValidationRequested{
			RequestID:          o.ID,
			ProductIDs:         productIDs,
			RequiredQuantities: quantities,
			RequestingService:  Source,
		})
	if err != nil {
		return err
	}

	for _, env := range []event.Envelope{created, cartReq.CausedBy(created), productReq.CausedBy(created)} {
		if err := s.bus.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one of the user's orders, including any validation
// errors attached in its terminal state.
func (s *Service) Get(ctx context.Context, id, userID string) (*Order, error) {
	return s.store.FindByIDAndUser(ctx, id, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.store.FindByUser(ctx, userID)
}

// Cancel is the user-facing cancellation for orders that have not
// shipped. Terminal validation outcomes are unaffected by it.
func (s *Service) Cancel(ctx context.Context, id, userID, reason string) (*Order, error) {
	if _, err := s.store.FindByIDAndUser(ctx, id, userID); err != nil {
		return nil, err
	}

	err := s.store.Mutate(ctx, id, func(o *Order) error {
		if !o.CanTransitionTo(StatusCancelled) {
			return o.transitionError(StatusCancelled)
		}
		o.Status = StatusCancelled
		if reason != "" {
			o.ValidationErrors = append(o.ValidationErrors, reason)
		}
		now := time.Now()
		if o.ValidationCompletedAt == nil {
			o.ValidationCompletedAt = &now
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}
