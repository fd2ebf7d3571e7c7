package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-order-sync/internal/domain/catalog"
)

// PostgresProductStore is the catalog's authoritative store.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = "id, name, description, price, currency, stock_quantity, category, image_url, active, created_at, updated_at"

func (s *PostgresProductStore) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.StockQuantity,
		&p.Category, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency,
			&p.StockQuantity, &p.Category, &p.ImageURL, &p.Active,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) Save(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, currency, stock_quantity, category, image_url, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   description = EXCLUDED.description,
		   price = EXCLUDED.price,
		   currency = EXCLUDED.currency,
		   stock_quantity = EXCLUDED.stock_quantity,
		   category = EXCLUDED.category,
		   image_url = EXCLUDED.image_url,
		   active = EXCLUDED.active,
		   updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.StockQuantity,
		p.Category, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PostgresProductStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}
