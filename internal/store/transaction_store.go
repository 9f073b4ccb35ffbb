package store

import (
	"context"
	"time"

	"tailorshop/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionFilter struct {
	Currency  string
	Method    string
	Direction string
	From      *time.Time
	To        *time.Time
}

// MethodBalance is the signed sum for one (currency, method) pair.
type MethodBalance struct {
	Currency  string     `db:"currency"`
	Method    string     `db:"method"`
	Balance   int64      `db:"balance"`
	FirstDate *time.Time `db:"first_date"`
}

const transactionColumns = `id, currency, category, amount, transaction_type, method, transaction_date, details, created_by, created_at`

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input models.Transaction) error {
	query := `
		INSERT INTO transactions (id, currency, category, amount, transaction_type, method, transaction_date, details, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Currency, input.Category, input.Amount, input.Direction, input.Method,
		input.TransactionDate, input.Details, input.CreatedBy,
	)
	return err
}

func (s *TransactionStore) List(ctx context.Context, filter TransactionFilter, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE ($1::text = '' OR currency = $1)
		  AND ($2::text = '' OR method = $2)
		  AND ($3::text = '' OR transaction_type = $3)
		  AND ($4::timestamptz IS NULL OR transaction_date >= $4)
		  AND ($5::timestamptz IS NULL OR transaction_date < $5)
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $6 OFFSET $7
	`, filter.Currency, filter.Method, filter.Direction, filter.From, filter.To, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Balances recomputes every (currency, method) balance from the full table.
func (s *TransactionStore) Balances(ctx context.Context) ([]MethodBalance, error) {
	var rows []MethodBalance
	err := s.db.SelectContext(ctx, &rows, `
		SELECT currency,
		       method,
		       COALESCE(SUM(CASE WHEN transaction_type = 'out' THEN -amount ELSE amount END), 0) AS balance,
		       MIN(transaction_date) AS first_date
		FROM transactions
		GROUP BY currency, method
		ORDER BY currency, method
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
