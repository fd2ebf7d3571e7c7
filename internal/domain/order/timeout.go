package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TimeoutReason is attached to orders cancelled by the monitor so the
// outcome is distinguishable from a failed validation.
const TimeoutReason = "validation timed out"

// TimeoutMonitor sweeps orders stuck in PENDING past their validation
// deadline and cancels them. Without it, a lost validation result
// leaves an order PENDING forever. Each cancellation goes through the
// same transactional Mutate path as the aggregator, so a result racing
// the sweep loses cleanly: whichever commits first settles the order
// and the other becomes a recorded no-op.
type TimeoutMonitor struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger
}

func NewTimeoutMonitor(store Store, interval time.Duration, logger *zap.Logger) *TimeoutMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TimeoutMonitor{store: store, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled.
func (m *TimeoutMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.logger.Error("timeout sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep cancels every PENDING order whose deadline has passed.
func (m *TimeoutMonitor) Sweep(ctx context.Context) error {
	ids, err := m.store.FindExpiredPending(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := m.store.Mutate(ctx, id, func(o *Order) error {
			if o.Terminal() {
				// Settled between the query and the lock.
				return nil
			}
			now := time.Now()
			o.Status = StatusCancelled
			o.ValidationErrors = append(o.ValidationErrors, TimeoutReason)
			o.ValidationCompletedAt = &now
			o.UpdatedAt = now
			return nil
		})
		if err != nil && !errors.Is(err, ErrOrderNotFound) {
			return err
		}
		m.logger.Warn("order cancelled after validation timeout", zap.String("order_id", id))
	}
	return nil
}
