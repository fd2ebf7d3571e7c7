package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-order-sync/internal/domain/cart"
)

// PostgresCartStore is the authoritative cart write store.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

const cartItemColumns = "id, cart_id, user_id, product_id, quantity, created_at, updated_at"

func (s *PostgresCartStore) FindByUserID(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.CartID, &item.UserID, &item.ProductID,
			&item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresCartStore) FindByUserAndProduct(ctx context.Context, userID, productID string) (*cart.Item, error) {
	return s.findOne(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
}

func (s *PostgresCartStore) FindByUserAndID(ctx context.Context, userID, itemID string) (*cart.Item, error) {
	return s.findOne(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE user_id = $1 AND id = $2`,
		userID, itemID)
}

func (s *PostgresCartStore) findOne(ctx context.Context, query string, args ...any) (*cart.Item, error) {
	var item cart.Item
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.CartID, &item.UserID, &item.ProductID,
		&item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *PostgresCartStore) Save(ctx context.Context, item *cart.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, cart_id, user_id, product_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		item.ID, item.CartID, item.UserID, item.ProductID,
		item.Quantity, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (s *PostgresCartStore) Delete(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	return err
}

func (s *PostgresCartStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
