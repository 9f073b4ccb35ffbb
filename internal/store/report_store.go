package store

import (
	"context"
	"time"

	"tailorshop/internal/models"
)

// ReportStore holds the read-only aggregate queries behind the dashboard and reports.
type ReportStore struct {
	db DB
}

func NewReportStore(db DB) *ReportStore {
	return &ReportStore{db: db}
}

type OrderCounts struct {
	Total      int64 `db:"total"`
	Completed  int64 `db:"completed"`
	Pending    int64 `db:"pending"`
	InProgress int64 `db:"in_progress"`
}

type PeriodTotal struct {
	Period time.Time `db:"period"`
	Orders int64     `db:"orders"`
	Total  int64     `db:"total"`
}

type CustomerRanking struct {
	CustomerID string `db:"customer_id"`
	FullName   string `db:"full_name"`
	Phone      string `db:"phone"`
	OrderCount int64  `db:"order_count"`
	TotalSpent int64  `db:"total_spent"`
}

type StaffTaskStats struct {
	UserID         string  `db:"user_id"`
	Username       string  `db:"username"`
	FullName       *string `db:"full_name"`
	TotalTasks     int64   `db:"total_tasks"`
	CompletedTasks int64   `db:"completed_tasks"`
}

func (s *ReportStore) OrderCounts(ctx context.Context) (OrderCounts, error) {
	var row OrderCounts
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status IN ('completed', 'delivered')) AS completed,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		       COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress
		FROM orders
	`)
	return row, err
}

// Revenue sums total_price of completed or delivered orders created in [from, to).
// Nil bounds are open.
func (s *ReportStore) Revenue(ctx context.Context, from, to *time.Time) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE status IN ('completed', 'delivered')
		  AND ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
	`, from, to)
	return total, err
}

func (s *ReportStore) CustomerCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers`)
	return count, err
}

// RevenueByPeriod buckets completed/delivered revenue by date_trunc unit (day, week, month).
func (s *ReportStore) RevenueByPeriod(ctx context.Context, unit string, from, to time.Time) ([]PeriodTotal, error) {
	var rows []PeriodTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT date_trunc($1, created_at) AS period,
		       COUNT(*) AS orders,
		       COALESCE(SUM(total_price), 0) AS total
		FROM orders
		WHERE status IN ('completed', 'delivered')
		  AND created_at >= $2 AND created_at < $3
		GROUP BY period
		ORDER BY period
	`, unit, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReportStore) PaymentsBetween(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	var rows []models.Payment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, order_id, amount, payment_type, notes, created_by, created_at
		FROM payments
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReportStore) BestCustomers(ctx context.Context, limit int) ([]CustomerRanking, error) {
	var rows []CustomerRanking
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id AS customer_id, c.full_name, c.phone,
		       COUNT(o.id) AS order_count,
		       COALESCE(SUM(o.total_price), 0) AS total_spent
		FROM customers c
		JOIN orders o ON o.customer_id = c.id
		GROUP BY c.id, c.full_name, c.phone
		ORDER BY order_count DESC, total_spent DESC, c.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReportStore) StaffTaskStats(ctx context.Context, role string) ([]StaffTaskStats, error) {
	var rows []StaffTaskStats
	err := s.db.SelectContext(ctx, &rows, `
		SELECT u.id AS user_id, u.username, u.full_name,
		       COUNT(t.id) AS total_tasks,
		       COUNT(t.id) FILTER (WHERE t.status = 'completed') AS completed_tasks
		FROM users u
		LEFT JOIN tasks t ON t.assigned_to = u.id
		WHERE u.role = $1
		GROUP BY u.id, u.username, u.full_name
		ORDER BY u.username
	`, role)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
