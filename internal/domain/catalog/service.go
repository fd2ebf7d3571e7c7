package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/event"
)

const (
	AggregateType = "Product"
	Source        = "catalog-service"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must be positive")
)

// Product is the catalog's authoritative record. Price is in minor
// currency units.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int       `json:"price"`
	Currency      string    `json:"currency"`
	StockQuantity int       `json:"stockQuantity"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"imageUrl"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store is the catalog repository.
type Store interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// Service owns catalog mutations and emits product-domain events for
// downstream projections.
type Service struct {
	store  Store
	bus    event.Publisher
	logger *zap.Logger
}

func NewService(store Store, bus event.Publisher, logger *zap.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if p.Name == "" {
		return nil, ErrInvalidName
	}
	if p.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Currency == "" {
		p.Currency = "USD"
	}

	if err := s.store.Save(ctx, &p); err != nil {
		return nil, err
	}
	if err := s.publishUpdated(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update overwrites the mutable product fields and fans the new state
// out to every view that denormalized it.
func (s *Service) Update(ctx context.Context, id string, p Product) (*Product, error) {
	if p.Name == "" {
		return nil, ErrInvalidName
	}
	if p.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Name = p.Name
	current.Description = p.Description
	current.Price = p.Price
	current.StockQuantity = p.StockQuantity
	current.Category = p.Category
	current.ImageURL = p.ImageURL
	current.Active = p.Active
	if p.Currency != "" {
		current.Currency = p.Currency
	}
	current.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, current); err != nil {
		return nil, err
	}
	if err := s.publishUpdated(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	env, err := event.New(EventProductDeleted, id, AggregateType, Source, ProductDeleted{ProductID: id})
	if err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, env); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx)
}

func (s *Service) publishUpdated(ctx context.Context, p *Product) error {
	env, err := event.New(EventProductUpdated, p.ID, AggregateType, Source, ProductUpdated{
		ProductID:     p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Currency:      p.Currency,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Active:        p.Active,
	})
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, env)
}
