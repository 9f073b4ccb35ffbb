package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrMissingAmount   = errors.New("amount is required")
)

// maxWhole keeps whole*100 + 99 within int64.
const maxWhole = (math.MaxInt64 - 99) / 100

func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	switch trimmed[0] {
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	parts := strings.SplitN(trimmed, ".", 2)
	wholePart := parts[0]
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return 0, ErrInvalidAmount
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > 2 {
		return 0, ErrTooManyDecimals
	}
	if fracPart != "" && !isDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil || whole > maxWhole {
		return 0, ErrInvalidAmount
	}
	frac := int64(0)
	if len(fracPart) == 1 {
		frac = int64(fracPart[0]-'0') * 10
	} else if len(fracPart) == 2 {
		value, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		frac = value
	}
	minor := whole*100 + frac
	return sign * minor, nil
}

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// ParseAmount accepts a decoded JSON value (number or numeric string) and
// returns minor units. nil and "" report ErrMissingAmount.
func ParseAmount(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, ErrMissingAmount
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, ErrMissingAmount
		}
		return ParseMinor(v)
	case json.Number:
		return ParseMinor(v.String())
	case float64:
		return FromDecimal(decimal.NewFromFloat(v))
	case int:
		return wholeToMinor(int64(v))
	case int64:
		return wholeToMinor(v)
	default:
		return 0, ErrInvalidAmount
	}
}

// FromDecimal converts a decimal amount to minor units without rounding.
func FromDecimal(value decimal.Decimal) (int64, error) {
	minor := value.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrTooManyDecimals
	}
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

func wholeToMinor(whole int64) (int64, error) {
	if whole > maxWhole || whole < -maxWhole {
		return 0, ErrInvalidAmount
	}
	return whole * 100, nil
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
