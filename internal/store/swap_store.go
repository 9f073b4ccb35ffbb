package store

import (
	"context"

	"tailorshop/internal/models"
)

type SwapStore struct {
	db DB
}

func NewSwapStore(db DB) *SwapStore {
	return &SwapStore{db: db}
}

// SwapTotals aggregates what left and arrived on one named account.
type SwapTotals struct {
	Account    string `db:"account"`
	OutCash    int64  `db:"out_cash"`
	OutDigital int64  `db:"out_digital"`
	InCash     int64  `db:"in_cash"`
	InDigital  int64  `db:"in_digital"`
}

func (s *SwapStore) Create(ctx context.Context, tx Execer, swap models.Swap) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO swaps (id, from_account, to_account, from_cash_amount, from_digital_amount, to_cash_amount, to_digital_amount, exchange_rate, details, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, swap.ID, swap.FromAccount, swap.ToAccount, swap.FromCash, swap.FromDigital, swap.ToCash, swap.ToDigital,
		swap.ExchangeRate, swap.Details, swap.CreatedBy)
	return err
}

func (s *SwapStore) List(ctx context.Context, limit, offset int) ([]models.Swap, error) {
	var rows []models.Swap
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, from_account, to_account, from_cash_amount, from_digital_amount, to_cash_amount,
		       to_digital_amount, exchange_rate, details, created_by, created_at
		FROM swaps
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SwapStore) Totals(ctx context.Context) ([]SwapTotals, error) {
	var rows []SwapTotals
	err := s.db.SelectContext(ctx, &rows, `
		SELECT account,
		       COALESCE(SUM(out_cash), 0) AS out_cash,
		       COALESCE(SUM(out_digital), 0) AS out_digital,
		       COALESCE(SUM(in_cash), 0) AS in_cash,
		       COALESCE(SUM(in_digital), 0) AS in_digital
		FROM (
			SELECT from_account AS account, from_cash_amount AS out_cash, from_digital_amount AS out_digital,
			       0::bigint AS in_cash, 0::bigint AS in_digital
			FROM swaps
			UNION ALL
			SELECT to_account, 0, 0, to_cash_amount, to_digital_amount
			FROM swaps
		) legs
		GROUP BY account
		ORDER BY account
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
