package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountTitle = errors.New("invalid account title")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrAmountTooLarge      = errors.New("amount exceeds maximum allowed")
	ErrMetadataTooLarge    = errors.New("metadata size exceeds limit")
)

// Validation constants
const (
	MaxAccountTitleLength = 255
	MinAccountTitleLength = 1
	MaxMetadataSize       = 10240 // 10KB
	MaxTransferAmount     = "1000000000" // 1 billion
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"AED": true, "SAR": true, "PKR": true, "INR": true,
	"BDT": true, "MYR": true, "SGD": true, "TRY": true,
}

// ValidateAccountTitle validates an account title.
func ValidateAccountTitle(title string) error {
	title = strings.TrimSpace(title)

	if len(title) < MinAccountTitleLength {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidAccountTitle)
	}

	if len(title) > MaxAccountTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidAccountTitle, MaxAccountTitleLength)
	}

	return nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateMetadata validates metadata size.
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// MatchRecipientTitle implements the third-party transfer recipient check:
// a case-insensitive substring match in either direction.
func MatchRecipientTitle(claimed, actual string) bool {
	c := strings.ToLower(strings.TrimSpace(claimed))
	a := strings.ToLower(strings.TrimSpace(actual))

	if c == "" || a == "" {
		return false
	}

	return strings.Contains(a, c) || strings.Contains(c, a)
}

// ValidatePagination limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
