package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/readmodel"
)

// PostgresViewStore persists the cart item read model. Upsert keys on
// cart_item_id so a replayed added event lands on the same row, and
// product fan-out is a single bulk UPDATE with absolute values.
type PostgresViewStore struct {
	db *sql.DB
}

func NewPostgresViewStore(db *sql.DB) *PostgresViewStore {
	return &PostgresViewStore{db: db}
}

const viewColumns = `id, cart_item_id, cart_id, user_id, product_id, product_name,
	product_description, product_price, product_image_url, product_category,
	product_active, available, quantity, updated_at`

func (s *PostgresViewStore) Upsert(ctx context.Context, v *readmodel.CartItemView) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_item_views (`+viewColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (cart_item_id) DO UPDATE SET
		   product_id = EXCLUDED.product_id,
		   product_name = EXCLUDED.product_name,
		   product_description = EXCLUDED.product_description,
		   product_price = EXCLUDED.product_price,
		   product_image_url = EXCLUDED.product_image_url,
		   product_category = EXCLUDED.product_category,
		   product_active = EXCLUDED.product_active,
		   available = EXCLUDED.available,
		   quantity = EXCLUDED.quantity,
		   updated_at = EXCLUDED.updated_at`,
		v.ID, v.CartItemID, v.CartID, v.UserID, v.ProductID, v.ProductName,
		v.ProductDescription, v.ProductPrice, v.ProductImageURL, v.ProductCategory,
		v.ProductActive, v.Available, v.Quantity, v.UpdatedAt,
	)
	return err
}

// UpdateQuantity sets the absolute quantity and reports whether a row
// existed to receive it.
func (s *PostgresViewStore) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_item_views SET quantity = $2, updated_at = $3 WHERE cart_item_id = $1`,
		cartItemID, quantity, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresViewStore) Delete(ctx context.Context, cartItemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_item_views WHERE cart_item_id = $1`, cartItemID)
	return err
}

// UpdateProductDetails fans one product's current state out to every
// referencing row in a single statement. Absolute values make the
// write idempotent under redelivery.
func (s *PostgresViewStore) UpdateProductDetails(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cart_item_views SET
		   product_name = $2,
		   product_description = $3,
		   product_price = $4,
		   product_image_url = $5,
		   product_category = $6,
		   product_active = $7,
		   available = $7,
		   updated_at = $8
		 WHERE product_id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Active, time.Now())
	return err
}

func (s *PostgresViewStore) MarkProductUnavailable(ctx context.Context, productID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cart_item_views SET product_active = false, available = false, updated_at = $2
		 WHERE product_id = $1`,
		productID, time.Now())
	return err
}

// FindByUserID returns the user's cart as the read API serves it.
func (s *PostgresViewStore) FindByUserID(ctx context.Context, userID string) ([]readmodel.CartItemView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+viewColumns+` FROM cart_item_views WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []readmodel.CartItemView
	for rows.Next() {
		var v readmodel.CartItemView
		if err := rows.Scan(&v.ID, &v.CartItemID, &v.CartID, &v.UserID, &v.ProductID,
			&v.ProductName, &v.ProductDescription, &v.ProductPrice, &v.ProductImageURL,
			&v.ProductCategory, &v.ProductActive, &v.Available, &v.Quantity, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
