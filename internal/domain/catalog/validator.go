package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/event"
)

// Validator answers product validation requests against the catalog's
// authoritative store. The lookup cache is never consulted here.
type Validator struct {
	store  Store
	bus    event.Publisher
	logger *zap.Logger
}

func NewValidator(store Store, bus event.Publisher, logger *zap.Logger) *Validator {
	return &Validator{store: store, bus: bus, logger: logger}
}

func (v *Validator) Register(d *event.Dispatcher) {
	d.On(EventProductValidationRequested, v.HandleValidationRequested)
}

// HandleValidationRequested checks each requested product: valid means
// it exists, is active, and has enough stock for the required quantity
// when one was given.
func (v *Validator) HandleValidationRequested(ctx context.Context, env event.Envelope) error {
	req, err := event.Decode[ValidationRequested](env)
	if err != nil {
		v.logger.Warn("discarding undecodable validation request",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	required := make(map[string]int, len(req.RequiredQuantities))
	for _, q := range req.RequiredQuantities {
		required[q.ProductID] = q.RequiredQuantity
	}

	validProducts := make([]string, 0, len(req.ProductIDs))
	invalidProducts := make([]string, 0)
	unavailableProducts := make([]ProductAvailability, 0)

	for _, productID := range req.ProductIDs {
		p, err := v.store.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				invalidProducts = append(invalidProducts, productID)
				continue
			}
			return fmt.Errorf("look up product %s: %w", productID, err)
		}
		if !p.Active {
			invalidProducts = append(invalidProducts, productID)
			continue
		}
		if qty, ok := required[productID]; ok && p.StockQuantity < qty {
			unavailableProducts = append(unavailableProducts, ProductAvailability{
				ProductID:         productID,
				AvailableQuantity: p.StockQuantity,
				RequestedQuantity: qty,
			})
			continue
		}
		validProducts = append(validProducts, productID)
	}

	result := ValidationCompleted{
		RequestID:           req.RequestID,
		ValidProducts:       validProducts,
		InvalidProducts:     invalidProducts,
		UnavailableProducts: unavailableProducts,
		IsValid:             len(invalidProducts) == 0 && len(unavailableProducts) == 0,
		RequestingService:   req.RequestingService,
	}

	out, err := event.New(EventProductValidationCompleted, req.RequestID, AggregateType, Source, result)
	if err != nil {
		return err
	}
	if err := v.bus.Publish(ctx, out.CausedBy(env)); err != nil {
		return err
	}

	v.logger.Info("product validation completed",
		zap.String("request_id", req.RequestID),
		zap.Bool("is_valid", result.IsValid),
		zap.Int("invalid", len(invalidProducts)),
		zap.Int("unavailable", len(unavailableProducts)),
		zap.String("correlation_id", env.CorrelationID))
	return nil
}
