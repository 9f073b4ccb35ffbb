package services

import (
	"errors"

	"tailorshop/internal/auth"

	"github.com/lib/pq"
)

var (
	ErrInvalidCredential     = errors.New("invalid email or password")
	ErrAccountDisabled       = errors.New("account disabled")
	ErrAccountLocked         = errors.New("account locked, try again later")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrWrongPassword         = errors.New("current password is incorrect")
	ErrForbidden             = auth.ErrForbidden
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNotFound              = errors.New("not found")

	ErrCustomerNotFound  = errors.New("customer not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrTaskExists        = errors.New("order already has a task")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrConflict          = errors.New("already exists")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
