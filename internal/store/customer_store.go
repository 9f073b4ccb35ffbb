package store

import (
	"context"

	"tailorshop/internal/models"
)

type CustomerStore struct {
	db DB
}

func NewCustomerStore(db DB) *CustomerStore {
	return &CustomerStore{db: db}
}

const customerColumns = `id, full_name, phone, email, address, special_notes, created_at, updated_at`

func (s *CustomerStore) Create(ctx context.Context, tx Execer, customer models.Customer) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO customers (id, full_name, phone, email, address, special_notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, customer.ID, customer.FullName, customer.Phone, customer.Email, customer.Address, customer.SpecialNotes)
	return err
}

func (s *CustomerStore) GetByID(ctx context.Context, customerID string) (models.Customer, error) {
	var row models.Customer
	err := s.db.GetContext(ctx, &row, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID)
	return row, err
}

func (s *CustomerStore) Exists(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, customerID)
	return exists, err
}

// List matches search against name, phone or email.
func (s *CustomerStore) List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error) {
	var rows []models.Customer
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE $1::text = '' OR full_name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CustomerStore) Update(ctx context.Context, tx Execer, customer models.Customer) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET full_name = $1, phone = $2, email = $3, address = $4, special_notes = $5, updated_at = NOW()
		WHERE id = $6
	`, customer.FullName, customer.Phone, customer.Email, customer.Address, customer.SpecialNotes, customer.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
