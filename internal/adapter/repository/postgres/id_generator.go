package postgres

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based identifiers plus the human-facing
// reference and account-number formats.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// Reference builds a customer-facing transaction reference, date-prefixed
// so support staff can eyeball when it happened.
func (g *ULIDGenerator) Reference(at time.Time) string {
	id := ulid.Make().String()
	return "TXN-" + at.UTC().Format("20060102") + "-" + id[len(id)-8:]
}

// AccountNumber generates a 12-digit account number.
func (g *ULIDGenerator) AccountNumber() string {
	digits := make([]byte, 12)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	// No leading zero: keeps the number a stable 12 digits everywhere.
	if digits[0] == '0' {
		digits[0] = '1'
	}
	return string(digits)
}
