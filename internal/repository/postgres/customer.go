// Package postgres implements the CRUD collaborator interfaces against
// PostgreSQL. Entity persistence is deliberately plain find/insert/update:
// all interesting logic lives in the engine packages that consume it.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xenolabs/engage/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CustomerRepo persists customers.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `id, name, email, spend, visits, inactive_days, total_orders, avg_order_value, created_at, updated_at`

// FindCustomers returns the whole collection in insertion order. The rule
// engine and preview sample both depend on that ordering.
func (r *CustomerRepo) FindCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Spend, &c.Visits, &c.InactiveDays,
			&c.TotalOrders, &c.AvgOrderValue, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a customer. A duplicate email maps to ErrDuplicateEmail.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers
			(id, name, email, spend, visits, inactive_days, total_orders, avg_order_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, c.ID, c.Name, c.Email, c.Spend, c.Visits, c.InactiveDays, c.TotalOrders, c.AvgOrderValue)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// Metrics is the overview block for the analytics dashboard.
type Metrics struct {
	TotalCustomers    int     `json:"totalCustomers"`
	TotalSpend        float64 `json:"totalSpend"`
	AvgOrderValue     float64 `json:"avgOrderValue"`
	InactiveCustomers int     `json:"inactiveCustomers"`
}

// GetMetrics computes the overview aggregates. AvgOrderValue is rounded to
// the nearest whole unit, matching what the dashboard displays.
func (r *CustomerRepo) GetMetrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(spend), 0),
		       COALESCE(ROUND(AVG(avg_order_value)), 0),
		       COUNT(*) FILTER (WHERE inactive_days > 30)
		FROM customers
	`).Scan(&m.TotalCustomers, &m.TotalSpend, &m.AvgOrderValue, &m.InactiveCustomers)
	if err != nil {
		return nil, fmt.Errorf("customer metrics: %w", err)
	}
	return &m, nil
}

// RangeCount is one bucket of a range breakdown.
type RangeCount struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// CountByRange counts customers whose numeric column falls in [min, max].
func (r *CustomerRepo) CountByRange(ctx context.Context, column string, min, max float64) (int, error) {
	switch column {
	case "inactive_days", "spend":
	default:
		return 0, fmt.Errorf("unsupported range column %q", column)
	}

	query, args, err := psql.
		Select("COUNT(*)").
		From("customers").
		Where(sq.GtOrEq{column: min}).
		Where(sq.LtOrEq{column: max}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build range query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by %s range: %w", column, err)
	}
	return count, nil
}

// TopBySpend returns the highest-spend customers, newest spenders first.
func (r *CustomerRepo) TopBySpend(ctx context.Context, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := psql.
		Select(customerColumns).
		From("customers").
		OrderBy("spend DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Spend, &c.Visits, &c.InactiveDays,
			&c.TotalOrders, &c.AvgOrderValue, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
