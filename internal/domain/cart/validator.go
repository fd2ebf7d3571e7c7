package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/event"
)

// Validator answers cart validation requests from the order owner.
//
// It judges against the write store, never the CartItemView read
// model: the view is updated asynchronously and may reflect a cart
// state older or newer than the one the order was built from.
type Validator struct {
	store  Store
	bus    event.Publisher
	logger *zap.Logger
}

func NewValidator(store Store, bus event.Publisher, logger *zap.Logger) *Validator {
	return &Validator{store: store, bus: bus, logger: logger}
}

// Register wires the validator into a cart-events dispatcher. All other
// event types on the channel fall through to the acknowledging default.
func (v *Validator) Register(d *event.Dispatcher) {
	d.On(EventCartValidationRequested, v.HandleValidationRequested)
}

// HandleValidationRequested validates the requested items against the
// user's cart and publishes the result. An empty cart passes: such
// orders defer to stock validation alone. This is deliberate policy,
// not an omission.
func (v *Validator) HandleValidationRequested(ctx context.Context, env event.Envelope) error {
	req, err := event.Decode[ValidationRequested](env)
	if err != nil {
		v.logger.Warn("discarding undecodable validation request",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	items, err := v.store.FindByUserID(ctx, req.UserID)
	if err != nil {
		// Infrastructure fault: leave unacknowledged for redelivery.
		return fmt.Errorf("load cart for user %s: %w", req.UserID, err)
	}

	var validationErrors []string
	if len(items) == 0 {
		v.logger.Info("cart empty, passing validation",
			zap.String("order_id", req.OrderID),
			zap.String("user_id", req.UserID))
	} else {
		byProduct := make(map[string]Item, len(items))
		for _, item := range items {
			byProduct[item.ProductID] = item
		}
		for _, requested := range req.Items {
			found, ok := byProduct[requested.ProductID]
			switch {
			case !ok:
				validationErrors = append(validationErrors,
					fmt.Sprintf("Product %s not found in cart", requested.ProductID))
			case found.Quantity != requested.Quantity:
				validationErrors = append(validationErrors,
					fmt.Sprintf("Quantity mismatch for product %s. Expected: %d, Found: %d",
						requested.ProductID, requested.Quantity, found.Quantity))
			}
		}
	}

	result := ValidationCompleted{
		OrderID:           req.OrderID,
		UserID:            req.UserID,
		IsValid:           len(validationErrors) == 0,
		ValidationErrors:  validationErrors,
		RequestingService: req.RequestingService,
	}

	out, err := event.New(EventCartValidationCompleted, req.OrderID, AggregateType, Source, result)
	if err != nil {
		return err
	}
	if err := v.bus.Publish(ctx, out.CausedBy(env)); err != nil {
		return err
	}

	v.logger.Info("cart validation completed",
		zap.String("order_id", req.OrderID),
		zap.Bool("is_valid", result.IsValid),
		zap.Strings("errors", validationErrors),
		zap.String("correlation_id", env.CorrelationID))
	return nil
}
