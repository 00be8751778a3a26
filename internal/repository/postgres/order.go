package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xenolabs/engage/internal/domain"
)

// OrderRepo persists orders. Deleting an order also deducts its amount from
// the customer's spend so the rule engine keeps seeing accurate totals; the
// two writes run in one transaction.
type OrderRepo struct{ db *sql.DB }

// NewOrderRepo creates a Postgres-backed order repository.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, customer_id, order_number, amount, currency, status, items, payment_method, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	o := &domain.Order{}
	var itemsRaw []byte
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderNumber, &o.Amount, &o.Currency,
		&o.Status, &itemsRaw, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return o, nil
}

// Create inserts an order, defaulting currency, status, and order number.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = fmt.Sprintf("ord_%d_%s", time.Now().UnixMilli(), o.ID[:8])
	}
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if o.Status == "" {
		o.Status = domain.OrderPending
	}

	itemsRaw, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, order_number, amount, currency, status, items, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, o.ID, o.CustomerID, o.OrderNumber, o.Amount, o.Currency, o.Status, itemsRaw, o.PaymentMethod)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// FindOrderByID loads one order, mapping a miss to domain.ErrNotFound.
func (r *OrderRepo) FindOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders returns orders newest first.
func (r *OrderRepo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateOrder replaces the items and amount of an order.
func (r *OrderRepo) UpdateOrder(ctx context.Context, o *domain.Order) error {
	itemsRaw, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET items = $2, amount = $3, updated_at = NOW()
		WHERE id = $1
	`, o.ID, itemsRaw, o.Amount)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOrder removes an order and deducts its amount from the customer's
// spend in the same transaction.
func (r *OrderRepo) DeleteOrder(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var customerID string
	var amount float64
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id, amount FROM orders WHERE id = $1
	`, id).Scan(&customerID, &amount)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get order for delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers SET spend = spend - $2, updated_at = NOW() WHERE id = $1
	`, customerID, amount); err != nil {
		return fmt.Errorf("adjust customer spend: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
