package cache

import (
	"context"

	"github.com/example/ec-order-sync/internal/domain/catalog"
)

// SourceLookup serves product lookups straight from the catalog store
// with no cache layer. Refresh and Invalidate are no-ops. Used where
// Redis is not reachable, such as the Lambda projector outside the
// cache's VPC.
type SourceLookup struct {
	source catalog.Store
}

func NewSourceLookup(source catalog.Store) *SourceLookup {
	return &SourceLookup{source: source}
}

func (l *SourceLookup) Product(ctx context.Context, id string) (*catalog.Product, error) {
	return l.source.FindByID(ctx, id)
}

func (l *SourceLookup) Refresh(ctx context.Context, p *catalog.Product) error {
	return nil
}

func (l *SourceLookup) Invalidate(ctx context.Context, id string) error {
	return nil
}
