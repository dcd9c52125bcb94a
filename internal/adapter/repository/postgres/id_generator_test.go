package postgres

import (
	"strings"
	"testing"
	"time"
)

func TestULIDGenerator_Generate(t *testing.T) {
	gen := NewULIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		if len(id) != 26 {
			t.Fatalf("ULID length = %d, want 26", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate ULID %s", id)
		}
		seen[id] = true
	}
}

func TestULIDGenerator_Reference(t *testing.T) {
	gen := NewULIDGenerator()
	at := time.Date(2026, time.August, 31, 9, 30, 0, 0, time.UTC)

	ref := gen.Reference(at)
	if !strings.HasPrefix(ref, "TXN-20260831-") {
		t.Errorf("reference = %s, want TXN-20260831- prefix", ref)
	}
	if len(ref) != len("TXN-20260831-")+8 {
		t.Errorf("reference suffix length wrong: %s", ref)
	}
}

func TestULIDGenerator_AccountNumber(t *testing.T) {
	gen := NewULIDGenerator()

	for i := 0; i < 100; i++ {
		number := gen.AccountNumber()
		if len(number) != 12 {
			t.Fatalf("account number length = %d, want 12", len(number))
		}
		if number[0] == '0' {
			t.Fatalf("account number %s has a leading zero", number)
		}
		for _, c := range number {
			if c < '0' || c > '9' {
				t.Fatalf("account number %s contains non-digit %c", number, c)
			}
		}
	}
}
