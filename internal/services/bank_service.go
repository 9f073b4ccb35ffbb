package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tailorshop/internal/db"
	"tailorshop/internal/models"
	"tailorshop/internal/store"
	"tailorshop/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BankStore interface {
	Create(ctx context.Context, tx store.Execer, bank models.Bank) error
	NextAccountNumber(ctx context.Context, tx store.Getter) (string, error)
	AccountNumberTaken(ctx context.Context, tx store.Getter, accountNumber, excludeID string) (bool, error)
	GetByID(ctx context.Context, bankID string) (models.Bank, error)
	Update(ctx context.Context, tx store.Execer, bank models.Bank) (int64, error)
	Delete(ctx context.Context, tx store.Execer, bankID string) (int64, error)
}

type UserExistence interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

const maxAccountNumberDraws = 50

type BankService struct {
	txRunner db.TxRunner
	banks    BankStore
	users    UserExistence
	audit    AuditStore
	now      func() time.Time
}

func NewBankService(txRunner db.TxRunner, banks BankStore, users UserExistence, audit AuditStore) *BankService {
	return &BankService{txRunner: txRunner, banks: banks, users: users, audit: audit, now: time.Now}
}

type BankInput struct {
	AccountNumber string
	Name          string
	Balance       int64
	UserID        string
}

// Create registers a bank account. A blank or already used account number
// is replaced with the next generated one; an unknown user is dropped.
func (s *BankService) Create(ctx context.Context, actorID string, input BankInput) (models.Bank, error) {
	if err := validator.Required(input.Name); err != nil {
		return models.Bank{}, err
	}
	owner, err := s.resolveUser(ctx, input.UserID)
	if err != nil {
		return models.Bank{}, err
	}
	bank := models.Bank{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Balance:   input.Balance,
		UserID:    owner,
		CreatedAt: s.now(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		number, err := s.accountNumber(ctx, tx, strings.TrimSpace(input.AccountNumber), bank.ID)
		if err != nil {
			return err
		}
		bank.AccountNumber = number
		if err := s.banks.Create(ctx, tx, bank); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "create_bank", "bank", bank.ID, auditData(map[string]string{"account_number": number}))
	})
	if err != nil {
		return models.Bank{}, err
	}
	return bank, nil
}

func (s *BankService) accountNumber(ctx context.Context, tx store.Getter, requested, bankID string) (string, error) {
	if requested != "" {
		taken, err := s.banks.AccountNumberTaken(ctx, tx, requested, bankID)
		if err != nil {
			return "", err
		}
		if !taken {
			return requested, nil
		}
	}
	for i := 0; i < maxAccountNumberDraws; i++ {
		number, err := s.banks.NextAccountNumber(ctx, tx)
		if err != nil {
			return "", err
		}
		taken, err := s.banks.AccountNumberTaken(ctx, tx, number, bankID)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", ErrConflict
}

func (s *BankService) resolveUser(ctx context.Context, userID string) (*string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &userID, nil
}

// Update overwrites the account; balance is set, not adjusted. Changing the
// account number to one another account uses fails with ErrConflict.
func (s *BankService) Update(ctx context.Context, actorID, bankID string, input BankInput) (models.Bank, error) {
	if err := validator.Required(input.Name); err != nil {
		return models.Bank{}, err
	}
	current, err := s.banks.GetByID(ctx, bankID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bank{}, ErrNotFound
		}
		return models.Bank{}, err
	}
	owner, err := s.resolveUser(ctx, input.UserID)
	if err != nil {
		return models.Bank{}, err
	}
	current.Name = strings.TrimSpace(input.Name)
	current.Balance = input.Balance
	current.UserID = owner
	number := strings.TrimSpace(input.AccountNumber)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if number != "" && number != current.AccountNumber {
			taken, err := s.banks.AccountNumberTaken(ctx, tx, number, bankID)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
			current.AccountNumber = number
		}
		rows, err := s.banks.Update(ctx, tx, current)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, actorID, "update_bank", "bank", bankID, "{}")
	})
	if err != nil {
		return models.Bank{}, err
	}
	return current, nil
}

func (s *BankService) Delete(ctx context.Context, actorID, bankID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.banks.Delete(ctx, tx, bankID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, actorID, "delete_bank", "bank", bankID, "{}")
	})
}
