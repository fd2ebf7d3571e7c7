package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/cart"
	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/event"
)

// Aggregator folds the two independent validation answers into the
// order's terminal state. It is safe under at-least-once, reordered
// delivery: flags are absolute sets, a negative answer cancels
// immediately without waiting for the other, and answers arriving
// after the order left PENDING are recorded without changing the
// outcome.
type Aggregator struct {
	store  Store
	logger *zap.Logger
}

func NewAggregator(store Store, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// RegisterCartHandlers wires the aggregator into a cart-events
// dispatcher; RegisterProductHandlers does the same for product
// events. The group's dispatcher fallback acknowledges everything
// else on the shared channels, including the requests this service
// emitted itself.
func (a *Aggregator) RegisterCartHandlers(d *event.Dispatcher) {
	d.On(cart.EventCartValidationCompleted, a.HandleCartValidationCompleted)
}

func (a *Aggregator) RegisterProductHandlers(d *event.Dispatcher) {
	d.On(catalog.EventProductValidationCompleted, a.HandleProductValidationCompleted)
}

func (a *Aggregator) HandleCartValidationCompleted(ctx context.Context, env event.Envelope) error {
	res, err := event.Decode[cart.ValidationCompleted](env)
	if err != nil {
		a.logger.Warn("discarding undecodable cart validation result",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	return a.applyResult(ctx, env, res.OrderID, res.IsValid, res.ValidationErrors, func(o *Order, v bool) {
		o.CartValidated = &v
	})
}

func (a *Aggregator) HandleProductValidationCompleted(ctx context.Context, env event.Envelope) error {
	res, err := event.Decode[catalog.ValidationCompleted](env)
	if err != nil {
		a.logger.Warn("discarding undecodable product validation result",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	return a.applyResult(ctx, env, res.RequestID, res.IsValid, stockErrors(res), func(o *Order, v bool) {
		o.StockValidated = &v
	})
}

// applyResult runs the transition rule inside the order store's local
// transaction. An unknown order id is not an error: the order may not
// exist yet from this consumer's point of view, or belongs to another
// deployment.
func (a *Aggregator) applyResult(ctx context.Context, env event.Envelope, orderID string,
	isValid bool, validationErrors []string, setFlag func(*Order, bool)) error {

	err := a.store.Mutate(ctx, orderID, func(o *Order) error {
		setFlag(o, isValid)

		if o.Terminal() {
			// Late or duplicate answer: the flag above is recorded,
			// the outcome and its timestamp stay untouched.
			return nil
		}

		now := time.Now()
		switch {
		case !isValid:
			o.Status = StatusCancelled
			o.ValidationErrors = append(o.ValidationErrors, validationErrors...)
			o.ValidationCompletedAt = &now
		case o.CartValidated != nil && *o.CartValidated &&
			o.StockValidated != nil && *o.StockValidated:
			o.Status = StatusConfirmed
			o.ValidationCompletedAt = &now
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			a.logger.Debug("ignoring validation result for unknown order",
				zap.String("order_id", orderID),
				zap.String("event_id", env.EventID))
			return nil
		}
		// Infrastructure fault: do not acknowledge, let it redeliver.
		return fmt.Errorf("apply validation result to order %s: %w", orderID, err)
	}

	a.logger.Info("validation result applied",
		zap.String("order_id", orderID),
		zap.Bool("is_valid", isValid),
		zap.String("correlation_id", env.CorrelationID))
	return nil
}

func stockErrors(res catalog.ValidationCompleted) []string {
	var errs []string
	for _, id := range res.InvalidProducts {
		errs = append(errs, fmt.Sprintf("Product %s is not available", id))
	}
	for _, u := range res.UnavailableProducts {
		errs = append(errs, fmt.Sprintf("Insufficient stock for product %s. Requested: %d, Available: %d",
			u.ProductID, u.RequestedQuantity, u.AvailableQuantity))
	}
	if len(errs) == 0 && !res.IsValid {
		errs = append(errs, "Stock validation failed")
	}
	return errs
}
