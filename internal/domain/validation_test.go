package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAccountTitle(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		expectError bool
	}{
		{"valid title", "Household Savings", false},
		{"empty title", "", true},
		{"whitespace only", "   ", true},
		{"at max length", strings.Repeat("a", MaxAccountTitleLength), false},
		{"over max length", strings.Repeat("a", MaxAccountTitleLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountTitle(tt.title)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	for _, code := range []string{"USD", "PKR", "eur", " GBP "} {
		if err := ValidateCurrency(code); err != nil {
			t.Errorf("ValidateCurrency(%q) = %v, want nil", code, err)
		}
	}

	for _, code := range []string{"XYZ", "", "US"} {
		if err := ValidateCurrency(code); !errors.Is(err, ErrInvalidCurrency) {
			t.Errorf("ValidateCurrency(%q) = %v, want ErrInvalidCurrency", code, err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(100)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}

	max, _ := decimal.NewFromString(MaxTransferAmount)
	if err := ValidateAmount(max); err != nil {
		t.Errorf("amount at maximum: unexpected error %v", err)
	}
	if err := ValidateAmount(max.Add(decimal.NewFromInt(1))); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("amount above maximum: got %v, want ErrAmountTooLarge", err)
	}
}

func TestMatchRecipientTitle(t *testing.T) {
	tests := []struct {
		name    string
		claimed string
		actual  string
		want    bool
	}{
		{"exact match", "John Smith", "John Smith", true},
		{"case insensitive", "john smith", "JOHN SMITH", true},
		{"claimed substring of actual", "John", "John Smith", true},
		{"actual substring of claimed", "Mr John Smith", "John Smith", true},
		{"surrounding whitespace", "  John Smith ", "John Smith", true},
		{"no overlap", "Jane Doe", "John Smith", false},
		{"empty claimed", "", "John Smith", false},
		{"empty actual", "John Smith", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchRecipientTitle(tt.claimed, tt.actual); got != tt.want {
				t.Errorf("MatchRecipientTitle(%q, %q) = %v, want %v", tt.claimed, tt.actual, got, tt.want)
			}
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults applied", 0, 0, 50, 0},
		{"negative clamped", -5, -10, 50, 0},
		{"cap enforced", 5000, 20, 1000, 20},
		{"valid passthrough", 25, 100, 25, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ValidatePagination(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
					tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	if err := ValidateMetadata(nil); err != nil {
		t.Errorf("nil metadata: unexpected error %v", err)
	}
	if err := ValidateMetadata(map[string]any{"biller": "utility-co"}); err != nil {
		t.Errorf("small metadata: unexpected error %v", err)
	}

	huge := map[string]any{"blob": strings.Repeat("x", MaxMetadataSize+1)}
	if err := ValidateMetadata(huge); !errors.Is(err, ErrMetadataTooLarge) {
		t.Errorf("oversized metadata: got %v, want ErrMetadataTooLarge", err)
	}
}
