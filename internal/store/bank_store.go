package store

import (
	"context"
	"fmt"

	"tailorshop/internal/models"
)

type BankStore struct {
	db DB
}

func NewBankStore(db DB) *BankStore {
	return &BankStore{db: db}
}

func (s *BankStore) Create(ctx context.Context, tx Execer, bank models.Bank) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO banks (id, account_number, name, balance, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, bank.ID, bank.AccountNumber, bank.Name, bank.Balance, bank.UserID)
	return err
}

// NextAccountNumber draws from bank_account_number_seq and formats it as ACC-0001.
func (s *BankStore) NextAccountNumber(ctx context.Context, tx Getter) (string, error) {
	var next int64
	if err := tx.GetContext(ctx, &next, `SELECT nextval('bank_account_number_seq')`); err != nil {
		return "", err
	}
	return fmt.Sprintf("ACC-%04d", next), nil
}

func (s *BankStore) AccountNumberTaken(ctx context.Context, tx Getter, accountNumber, excludeID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM banks WHERE account_number = $1 AND id <> $2)
	`, accountNumber, excludeID)
	return exists, err
}

func (s *BankStore) GetByID(ctx context.Context, bankID string) (models.Bank, error) {
	var row models.Bank
	err := s.db.GetContext(ctx, &row, `
		SELECT b.id, b.account_number, b.name, b.balance, b.user_id, u.username, b.created_at
		FROM banks b
		LEFT JOIN users u ON u.id = b.user_id
		WHERE b.id = $1
	`, bankID)
	return row, err
}

func (s *BankStore) List(ctx context.Context) ([]models.Bank, error) {
	var rows []models.Bank
	err := s.db.SelectContext(ctx, &rows, `
		SELECT b.id, b.account_number, b.name, b.balance, b.user_id, u.username, b.created_at
		FROM banks b
		LEFT JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *BankStore) Update(ctx context.Context, tx Execer, bank models.Bank) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE banks
		SET account_number = $1, name = $2, balance = $3, user_id = $4
		WHERE id = $5
	`, bank.AccountNumber, bank.Name, bank.Balance, bank.UserID, bank.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BankStore) Delete(ctx context.Context, tx Execer, bankID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM banks WHERE id = $1`, bankID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
