// Package core holds the budget entity graph: accounts, recurring entries,
// entry groups, transfers and the Budget aggregate, together with the
// change notification fabric that lets a mutation on any leaf ripple up to
// the owning Budget.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Field names shared by setters, events and persisted documents.
const (
	FieldName              = "name"
	FieldOwner             = "owner"
	FieldType              = "type"
	FieldPaymentSize       = "payment_size"
	FieldPaymentPeriod     = "payment_period"
	FieldFirstPaymentMonth = "first_payment_month"
	FieldPaymentFee        = "payment_fee"
	FieldPaymentMethod     = "payment_method"
	FieldAccount           = "account"
	FieldTag               = "tag"
	FieldSource            = "source"
	FieldDestination       = "destination"
	FieldAmount            = "amount"
	FieldEntries           = "entries"
	FieldExpenses          = "expenses"
	FieldIncomes           = "incomes"
	FieldTransfers         = "transfers"
	FieldAccounts          = "accounts"
	FieldBudgetAccounts    = "budget_accounts"
	FieldExtra             = "extra"
)

var (
	ErrInvalidField     = errors.New("invalid field value")
	ErrUnknownField     = errors.New("unknown field")
	ErrNonDivisorPeriod = errors.New("payment period does not divide 12")
	ErrInvalidPeriod    = errors.New("payment period must be at least 1")
	ErrInvalidMonth     = errors.New("first payment month must be between 1 and 12")
	ErrEmptyName        = errors.New("empty name")
	ErrAccountNotFound  = errors.New("account not found")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrGroupNotFound    = errors.New("entry group not found")
	ErrTransferNotFound = errors.New("transfer not found")
)

// NewID returns a fresh, never reused identifier.
func NewID() string {
	return uuid.NewString()
}

func invalid(field string, value any, reason string) error {
	return fmt.Errorf("%w: %s=%v: %s", ErrInvalidField, field, value, reason)
}

func toString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", invalid(field, value, "expected text")
	}
}

// toFloat accepts numbers and decimal text with either separator.
func toFloat(field string, value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, invalid(field, value, "expected a number")
		}
		f = parsed
	default:
		return 0, invalid(field, value, "expected a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(field, value, "not a finite number")
	}
	return f, nil
}

func toInt(field string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, invalid(field, value, "expected a whole number")
		}
		return int(v), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalid(field, value, "expected a whole number")
		}
		return i, nil
	default:
		return 0, invalid(field, value, "expected a whole number")
	}
}
