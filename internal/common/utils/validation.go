package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/officehub/backend/internal/domain/errors"
)

var (
	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// ULIDRegex validates ULID strings used for draft and idempotency keys
	ULIDRegex = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// ValidateISODate validates an ISO 8601 date string (YYYY-MM-DD)
func ValidateISODate(date string) error {
	if !DateRegex.MatchString(date) {
		return errors.NewValidationError("invalid date format, should be YYYY-MM-DD")
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errors.NewValidationError("invalid date value")
	}

	return nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}

// ValidatePositiveAmount validates that an amount is strictly positive
func ValidatePositiveAmount(amount decimal.Decimal, fieldName string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return errors.NewValidationError(fieldName + " must be greater than zero")
	}
	return nil
}

// ValidatePositiveInt validates that a value is a positive integer
func ValidatePositiveInt(value int, fieldName string) error {
	if value <= 0 {
		return errors.NewValidationError(fieldName + " must be a positive integer")
	}
	return nil
}
