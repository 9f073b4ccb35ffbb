package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tailorshop/internal/money"
	"tailorshop/internal/services"
	"tailorshop/internal/validator"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	errInvalidDate     = errors.New("invalid date")
	errInvalidQuantity = errors.New("invalid quantity")
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// page turns ?limit=&page= into limit/offset, capping limit at 200.
func page(r *http.Request) (int, int) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	p := parseInt(query.Get("page"), 1)
	return limit, (p - 1) * limit
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, errInvalidDate
}

func parseQuantity(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		if n, ok := raw.(interface{ String() string }); ok {
			return decimal.NewFromString(n.String())
		}
		return decimal.Zero, errInvalidQuantity
	}
}

func optionalQuantity(raw any) (decimal.NullDecimal, error) {
	if raw == nil {
		return decimal.NullDecimal{}, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	value, err := parseQuantity(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(value), nil
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, services.ErrAccountDisabled):
		return http.StatusForbidden, "Account disabled"
	case errors.Is(err, services.ErrAccountLocked):
		return http.StatusForbidden, "Account locked. Try again later"
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrMissingAmount),
		errors.Is(err, money.ErrTooManyDecimals),
		errors.Is(err, validator.ErrInvalidEmail),
		errors.Is(err, validator.ErrInvalidUsername),
		errors.Is(err, validator.ErrInvalidPassword),
		errors.Is(err, validator.ErrRequired),
		errors.Is(err, errInvalidDate),
		errors.Is(err, errInvalidQuantity):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrTaskExists),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return http.StatusConflict, "already exists"
	}
	return http.StatusInternalServerError, ""
}

// respondServiceError writes the mapped error; unmapped errors are logged and
// answered with fallback.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("handlers: %s: %v", fallback, err)
		message = fallback
	}
	respondError(w, status, message)
}
