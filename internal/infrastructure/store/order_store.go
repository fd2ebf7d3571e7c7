package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-order-sync/internal/domain/order"
)

// PostgresOrderStore owns order state. Mutate gives the saga handlers
// their local transaction boundary: row lock, apply, write back, one
// commit. Nothing here touches the bus.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

const orderColumns = `id, user_id, status, items, total_amount, cart_validated, stock_validated,
	validation_errors, validation_completed_at, validation_deadline, created_at, updated_at`

func (s *PostgresOrderStore) Insert(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	validationErrors, err := json.Marshal(o.ValidationErrors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.UserID, string(o.Status), items, o.TotalAmount,
		nullBool(o.CartValidated), nullBool(o.StockValidated),
		validationErrors, nullTime(o.ValidationCompletedAt),
		o.ValidationDeadline, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (s *PostgresOrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (s *PostgresOrderStore) FindByIDAndUser(ctx context.Context, id, userID string) (*order.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	return scanOrder(row)
}

func (s *PostgresOrderStore) FindByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Mutate loads the order under a row lock, applies the function and
// writes the result back, all in one local transaction.
func (s *PostgresOrderStore) Mutate(ctx context.Context, id string, apply func(o *order.Order) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		return err
	}

	if err := apply(o); err != nil {
		return err
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	validationErrors, err := json.Marshal(o.ValidationErrors)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, items = $3, total_amount = $4,
		   cart_validated = $5, stock_validated = $6, validation_errors = $7,
		   validation_completed_at = $8, updated_at = $9
		 WHERE id = $1`,
		o.ID, string(o.Status), items, o.TotalAmount,
		nullBool(o.CartValidated), nullBool(o.StockValidated),
		validationErrors, nullTime(o.ValidationCompletedAt), o.UpdatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresOrderStore) FindExpiredPending(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM orders WHERE status = $1 AND validation_deadline < $2`,
		string(order.StatusPending), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o                order.Order
		status           string
		items            []byte
		validationErrors []byte
		cartValidated    sql.NullBool
		stockValidated   sql.NullBool
		completedAt      sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &items, &o.TotalAmount,
		&cartValidated, &stockValidated, &validationErrors,
		&completedAt, &o.ValidationDeadline, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if len(validationErrors) > 0 {
		if err := json.Unmarshal(validationErrors, &o.ValidationErrors); err != nil {
			return nil, fmt.Errorf("decode validation errors: %w", err)
		}
	}
	if cartValidated.Valid {
		o.CartValidated = &cartValidated.Bool
	}
	if stockValidated.Valid {
		o.StockValidated = &stockValidated.Bool
	}
	if completedAt.Valid {
		t := completedAt.Time
		o.ValidationCompletedAt = &t
	}
	return &o, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
