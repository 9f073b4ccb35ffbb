package store

import (
	"context"
	"time"

	"tailorshop/internal/models"
)

type OrderStore struct {
	db DB
}

func NewOrderStore(db DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `o.id, o.customer_id, c.full_name AS customer_name, o.clothing_type, o.fabric_details,
	o.design_description, o.delivery_date, o.status, o.total_price, o.advance_paid, o.assigned_to,
	o.created_by, o.created_at, o.updated_at`

type OrderFilter struct {
	Status     string
	CustomerID string
	AssignedTo string
	From       *time.Time
	To         *time.Time
}

func (s *OrderStore) Create(ctx context.Context, tx Execer, order models.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, clothing_type, fabric_details, design_description, delivery_date, status, total_price, advance_paid, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
	`, order.ID, order.CustomerID, order.ClothingType, order.FabricDetails, order.DesignDescription,
		order.DeliveryDate, order.Status, order.TotalPrice, order.AssignedTo, order.CreatedBy)
	return err
}

func (s *OrderStore) GetByID(ctx context.Context, orderID string) (models.Order, error) {
	var row models.Order
	err := s.db.GetContext(ctx, &row, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, orderID)
	return row, err
}

// GetForUpdate locks the order row until the surrounding transaction ends.
func (s *OrderStore) GetForUpdate(ctx context.Context, tx Getter, orderID string) (models.Order, error) {
	var row models.Order
	err := tx.GetContext(ctx, &row, `
		SELECT id, customer_id, clothing_type, fabric_details, design_description, delivery_date, status,
		       total_price, advance_paid, assigned_to, created_by, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	return row, err
}

func (s *OrderStore) List(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, error) {
	var rows []models.Order
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE ($1::text = '' OR o.status = $1)
		  AND ($2::text = '' OR o.customer_id = $2)
		  AND ($3::text = '' OR o.assigned_to = $3)
		  AND ($4::timestamptz IS NULL OR o.created_at >= $4)
		  AND ($5::timestamptz IS NULL OR o.created_at < $5)
		ORDER BY o.created_at DESC
		LIMIT $6 OFFSET $7
	`, filter.Status, filter.CustomerID, filter.AssignedTo, filter.From, filter.To, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the editable fields; status and payments have their own paths.
func (s *OrderStore) Update(ctx context.Context, tx Execer, order models.Order) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET clothing_type = $1, fabric_details = $2, design_description = $3, delivery_date = $4,
		    total_price = $5, updated_at = NOW()
		WHERE id = $6
	`, order.ClothingType, order.FabricDetails, order.DesignDescription, order.DeliveryDate, order.TotalPrice, order.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *OrderStore) UpdateStatus(ctx context.Context, tx Execer, orderID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
	return err
}

func (s *OrderStore) Assign(ctx context.Context, tx Execer, orderID, userID, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET assigned_to = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, userID, status, orderID)
	return err
}

// IncrementAdvancePaid adds amount in place and returns the new total.
func (s *OrderStore) IncrementAdvancePaid(ctx context.Context, tx Getter, orderID string, amount int64) (int64, error) {
	var advancePaid int64
	err := tx.GetContext(ctx, &advancePaid, `
		UPDATE orders
		SET advance_paid = advance_paid + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING advance_paid
	`, amount, orderID)
	return advancePaid, err
}
