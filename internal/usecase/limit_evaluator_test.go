package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
	"github.com/corebank/ledger/internal/usecase/mocks"
)

func limitAccount(daily, monthly int64) *domain.Account {
	return &domain.Account{
		ID:           "acc-1",
		Type:         domain.AccountTypeSavings,
		Status:       domain.AccountStatusActive,
		Balance:      decimal.NewFromInt(1_000_000),
		DailyLimit:   decimal.NewFromInt(daily),
		MonthlyLimit: decimal.NewFromInt(monthly),
	}
}

func TestLimitEvaluator_CanDebit(t *testing.T) {
	tests := []struct {
		name       string
		account    *domain.Account
		usedDay    int64
		usedMonth  int64
		amount     int64
		wantWindow domain.LimitWindow
		wantExcess int64
		expectErr  bool
	}{
		{
			name:      "within both windows",
			account:   limitAccount(50_000, 500_000),
			usedDay:   10_000,
			usedMonth: 100_000,
			amount:    5_000,
		},
		{
			name:      "exactly at the daily ceiling",
			account:   limitAccount(50_000, 500_000),
			usedDay:   45_000,
			usedMonth: 45_000,
			amount:    5_000,
		},
		{
			name:       "daily window exceeded",
			account:    limitAccount(50_000, 500_000),
			usedDay:    45_000,
			usedMonth:  45_000,
			amount:     6_000,
			wantWindow: domain.LimitWindowDaily,
			wantExcess: 1_000,
			expectErr:  true,
		},
		{
			name:       "monthly window exceeded",
			account:    limitAccount(50_000, 500_000),
			usedDay:    0,
			usedMonth:  498_000,
			amount:     5_000,
			wantWindow: domain.LimitWindowMonthly,
			wantExcess: 3_000,
			expectErr:  true,
		},
		{
			name:       "both exceeded reports the larger shortfall",
			account:    limitAccount(50_000, 500_000),
			usedDay:    49_000,
			usedMonth:  490_000,
			amount:     20_000,
			wantWindow: domain.LimitWindowDaily,
			wantExcess: 19_000,
			expectErr:  true,
		},
		{
			name:      "zero daily limit means no ceiling",
			account:   limitAccount(0, 0),
			usedDay:   1_000_000,
			usedMonth: 9_000_000,
			amount:    500_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txnRepo := mocks.NewMockTransactionRepository()
			// The evaluator sums the daily window first, then the monthly one.
			calls := 0
			txnRepo.SumDebitsFunc = func(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time, excludeID string) (decimal.Decimal, error) {
				calls++
				if calls == 1 {
					return decimal.NewFromInt(tt.usedDay), nil
				}
				return decimal.NewFromInt(tt.usedMonth), nil
			}

			evaluator := usecase.NewLimitEvaluator(txnRepo)
			check, err := evaluator.CanDebit(context.Background(), nil, tt.account, decimal.NewFromInt(tt.amount), "")

			if tt.expectErr {
				if !errors.Is(err, domain.ErrLimitExceeded) {
					t.Fatalf("expected ErrLimitExceeded, got %v", err)
				}
				var limitErr *domain.LimitExceededError
				if !errors.As(err, &limitErr) {
					t.Fatal("expected *LimitExceededError")
				}
				if limitErr.Window != tt.wantWindow {
					t.Errorf("window = %s, want %s", limitErr.Window, tt.wantWindow)
				}
				if !limitErr.ExceedsBy.Equal(decimal.NewFromInt(tt.wantExcess)) {
					t.Errorf("ExceedsBy = %s, want %d", limitErr.ExceedsBy, tt.wantExcess)
				}
				if check == nil || check.Allowed {
					t.Error("check must report the rejection")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if check == nil || !check.Allowed {
					t.Error("check must report the pass")
				}
			}
		})
	}
}

func TestLimitEvaluator_CanDebit_FixedDeposit(t *testing.T) {
	evaluator := usecase.NewLimitEvaluator(mocks.NewMockTransactionRepository())
	account := limitAccount(0, 0)
	account.Type = domain.AccountTypeFixedDeposit

	_, err := evaluator.CanDebit(context.Background(), nil, account, decimal.NewFromInt(1), "")
	if !errors.Is(err, domain.ErrDebitsDisabled) {
		t.Errorf("expected ErrDebitsDisabled, got %v", err)
	}
}

func TestLimitEvaluator_CanDebit_ExcludesEntryUnderCommit(t *testing.T) {
	txnRepo := mocks.NewMockTransactionRepository()
	accountID := "acc-1"

	// The entry being committed is already visible as a processing debit.
	inFlight := &domain.Transaction{
		ID:            "txn-inflight",
		Type:          domain.TransactionTypeTransfer,
		Status:        domain.TransactionStatusProcessing,
		Channel:       domain.ChannelOnline,
		Amount:        decimal.NewFromInt(40_000),
		Currency:      "USD",
		FromAccountID: &accountID,
		CreatedAt:     time.Now().UTC(),
	}
	_ = txnRepo.Create(context.Background(), inFlight)

	evaluator := usecase.NewLimitEvaluator(txnRepo)
	account := limitAccount(50_000, 500_000)

	// Without the exclusion the in-flight row is counted and 40,000 more
	// would breach the daily ceiling.
	if _, err := evaluator.CanDebit(context.Background(), nil, account, decimal.NewFromInt(40_000), ""); !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded without exclusion, got %v", err)
	}

	if _, err := evaluator.CanDebit(context.Background(), nil, account, decimal.NewFromInt(40_000), inFlight.ID); err != nil {
		t.Errorf("unexpected error with exclusion: %v", err)
	}
}
