package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	AggregateType = "Order"
	Source        = "order-service"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must have at least one item")
	ErrInvalidStatus = errors.New("invalid order status transition")
)

// validTransitions defines allowed state transitions. Validation moves
// an order out of PENDING exactly once.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

type Item struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
}

// Order collects the saga's partial results. CartValidated and
// StockValidated stay nil until the corresponding answer arrives;
// ValidationCompletedAt is stamped exactly when the status leaves
// PENDING.
type Order struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	Status                Status     `json:"status"`
	Items                 []Item     `json:"items"`
	TotalAmount           int        `json:"totalAmount"`
	CartValidated         *bool      `json:"cartValidated"`
	StockValidated        *bool      `json:"stockValidated"`
	ValidationErrors      []string   `json:"validationErrors,omitempty"`
	ValidationCompletedAt *time.Time `json:"validationCompletedAt,omitempty"`
	ValidationDeadline    time.Time  `json:"validationDeadline"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// CanTransitionTo checks whether the target status is reachable.
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Terminal reports whether validation has concluded.
func (o *Order) Terminal() bool {
	return o.Status != StatusPending
}

func (o *Order) transitionError(target Status) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
}

// Store is the order repository. Every validation mutation runs inside
// Mutate's transaction: the row is locked, the function is applied and
// the result written back in one local commit, never spanning a bus
// call.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByIDAndUser(ctx context.Context, id, userID string) (*Order, error)
	FindByUser(ctx context.Context, userID string) ([]Order, error)
	Mutate(ctx context.Context, id string, apply func(o *Order) error) error
	FindExpiredPending(ctx context.Context, asOf time.Time) ([]string, error)
}
