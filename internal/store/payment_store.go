package store

import (
	"context"

	"tailorshop/internal/models"
)

type PaymentStore struct {
	db DB
}

func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// PaymentDrift is an order whose advance_paid disagrees with its payments.
type PaymentDrift struct {
	OrderID     string `db:"order_id"`
	AdvancePaid int64  `db:"advance_paid"`
	PaymentSum  int64  `db:"payment_sum"`
	Difference  int64  `db:"difference"`
}

func (s *PaymentStore) Create(ctx context.Context, tx Execer, payment models.Payment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, payment_type, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, payment.ID, payment.OrderID, payment.Amount, payment.PaymentType, payment.Notes, payment.CreatedBy)
	return err
}

func (s *PaymentStore) ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	var rows []models.Payment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, order_id, amount, payment_type, notes, created_by, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Drift lists every order where advance_paid differs from the sum of its payments.
func (s *PaymentStore) Drift(ctx context.Context) ([]PaymentDrift, error) {
	var rows []PaymentDrift
	err := s.db.SelectContext(ctx, &rows, `
		SELECT o.id AS order_id,
		       o.advance_paid,
		       COALESCE(SUM(p.amount), 0) AS payment_sum,
		       (o.advance_paid - COALESCE(SUM(p.amount), 0)) AS difference
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.id
		GROUP BY o.id, o.advance_paid
		HAVING o.advance_paid <> COALESCE(SUM(p.amount), 0)
		ORDER BY o.id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
