package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
	"github.com/corebank/ledger/internal/usecase/mocks"
)

func newTransferFixture() (*usecase.TransferUseCase, *mocks.MockAccountRepository, *mocks.MockTransactionRepository, *mocks.MockOutboxRepository) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	uc := usecase.NewTransferUseCase(
		txMgr,
		accRepo,
		txnRepo,
		outboxRepo,
		usecase.NewLimitEvaluator(txnRepo),
		domain.NewFeeSchedule(decimal.NewFromInt(25)),
		idGen,
		mocks.NewMockRetrier(),
		nil,
	)
	return uc, accRepo, txnRepo, outboxRepo
}

func seedAccount(repo *mocks.MockAccountRepository, id, userID string, balance int64) *domain.Account {
	acc := &domain.Account{
		ID:            id,
		AccountNumber: "00000000" + id,
		UserID:        userID,
		Type:          domain.AccountTypeSavings,
		Title:         "Account " + id,
		Currency:      "USD",
		Balance:       decimal.NewFromInt(balance),
		Status:        domain.AccountStatusActive,
		DailyLimit:    decimal.NewFromInt(50_000),
		MonthlyLimit:  decimal.NewFromInt(500_000),
	}
	_ = repo.Create(context.Background(), acc)
	return acc
}

func TestTransferUseCase_Execute_InternalTransfer(t *testing.T) {
	uc, accRepo, _, outboxRepo := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 2_000)

	txn, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(6_000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.TransactionStatusCompleted {
		t.Errorf("status = %s, want completed", txn.Status)
	}
	if !src.Balance.Equal(decimal.NewFromInt(4_000)) {
		t.Errorf("source balance = %s, want 4000", src.Balance)
	}
	if !dest.Balance.Equal(decimal.NewFromInt(8_000)) {
		t.Errorf("destination balance = %s, want 8000", dest.Balance)
	}
	if !txn.Fees.IsZero() {
		t.Errorf("internal transfer should be free, got fees %s", txn.Fees.TotalFees)
	}

	if txn.FromBalanceBefore == nil || !txn.FromBalanceBefore.Equal(decimal.NewFromInt(10_000)) {
		t.Error("missing or wrong source before snapshot")
	}
	if txn.FromBalanceAfter == nil || !txn.FromBalanceAfter.Equal(decimal.NewFromInt(4_000)) {
		t.Error("missing or wrong source after snapshot")
	}
	if txn.ToBalanceAfter == nil || !txn.ToBalanceAfter.Equal(decimal.NewFromInt(8_000)) {
		t.Error("missing or wrong destination after snapshot")
	}

	if got := domain.ClassifyDirection(txn, "acc-1"); got != domain.DirectionDebit {
		t.Errorf("source direction = %s, want debit", got)
	}
	if got := domain.ClassifyDirection(txn, "acc-2"); got != domain.DirectionCredit {
		t.Errorf("destination direction = %s, want credit", got)
	}

	if len(outboxRepo.Events) != 2 {
		t.Fatalf("expected one outbox event per owner, got %d", len(outboxRepo.Events))
	}
	for _, e := range outboxRepo.Events {
		if e.EventType != domain.EventTypeTransactionCompleted {
			t.Errorf("event type = %s, want %s", e.EventType, domain.EventTypeTransactionCompleted)
		}
	}
}

func TestTransferUseCase_Execute_ExternalTransferFee(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 0)
	dest.Title = "Jane Smith"
	dest.MinimumBalance = decimal.Zero

	txn, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:            domain.TransactionTypeTransfer,
		FromAccountID:   "acc-1",
		ToAccountNumber: dest.AccountNumber,
		ToAccountTitle:  "jane",
		Amount:          decimal.NewFromInt(1_000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Subtype != domain.SubtypeExternalTransfer {
		t.Errorf("subtype = %s, want %s", txn.Subtype, domain.SubtypeExternalTransfer)
	}
	if !txn.Fees.TotalFees.Equal(decimal.NewFromInt(25)) {
		t.Errorf("fee = %s, want 25", txn.Fees.TotalFees)
	}
	if !src.Balance.Equal(decimal.NewFromInt(8_975)) {
		t.Errorf("source balance = %s, want 8975 (amount plus fee debited)", src.Balance)
	}
	if !dest.Balance.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("destination balance = %s, want 1000 (fee never credited)", dest.Balance)
	}
}

func TestTransferUseCase_Execute_RecipientMismatch(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 0)
	dest.Title = "Jane Smith"

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:            domain.TransactionTypeTransfer,
		FromAccountID:   "acc-1",
		ToAccountNumber: dest.AccountNumber,
		ToAccountTitle:  "Robert Brown",
		Amount:          decimal.NewFromInt(1_000),
	})
	if !errors.Is(err, domain.ErrRecipientMismatch) {
		t.Errorf("expected ErrRecipientMismatch, got %v", err)
	}
	if !src.Balance.Equal(decimal.NewFromInt(10_000)) {
		t.Errorf("rejected transfer must not move money, balance = %s", src.Balance)
	}
}

func TestTransferUseCase_Execute_DailyLimit(t *testing.T) {
	uc, accRepo, txnRepo, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 100_000)
	seedAccount(accRepo, "acc-2", "user-2", 0)

	// 45,000 already moved out today.
	now := time.Now().UTC()
	prior := &domain.Transaction{
		ID:            "txn-prior",
		Type:          domain.TransactionTypeWithdrawal,
		Status:        domain.TransactionStatusCompleted,
		Channel:       domain.ChannelATM,
		Amount:        decimal.NewFromInt(45_000),
		Currency:      "USD",
		FromAccountID: &src.ID,
		CreatedAt:     now,
	}
	_ = txnRepo.Create(context.Background(), prior)

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(6_000),
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	var limitErr *domain.LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatal("expected *LimitExceededError")
	}
	if limitErr.Window != domain.LimitWindowDaily {
		t.Errorf("window = %s, want daily", limitErr.Window)
	}
	if !limitErr.ExceedsBy.Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("ExceedsBy = %s, want 1000", limitErr.ExceedsBy)
	}
	if !src.Balance.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("rejected transfer must not move money, balance = %s", src.Balance)
	}
}

func TestTransferUseCase_Execute_InsufficientFunds(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 1_000)
	src.MinimumBalance = decimal.NewFromInt(500)
	seedAccount(accRepo, "acc-2", "user-2", 0)

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(600),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	var fundsErr *domain.InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatal("expected *InsufficientFundsError")
	}
	if !fundsErr.ShortBy.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ShortBy = %s, want 100", fundsErr.ShortBy)
	}
}

func TestTransferUseCase_Execute_FixedDepositDebitRejected(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 50_000)
	src.Type = domain.AccountTypeFixedDeposit
	seedAccount(accRepo, "acc-2", "user-2", 0)

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrDebitsDisabled) {
		t.Errorf("expected ErrDebitsDisabled, got %v", err)
	}
}

func TestTransferUseCase_Execute_CreditFailureMarksEntryFailed(t *testing.T) {
	uc, accRepo, txnRepo, _ := newTransferFixture()
	seedAccount(accRepo, "acc-1", "user-1", 10_000)
	seedAccount(accRepo, "acc-2", "user-2", 0)

	accRepo.ApplyDeltaFunc = func(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
		if delta.IsPositive() {
			return fmt.Errorf("connection reset")
		}
		return nil
	}

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(1_000),
	})
	if !errors.Is(err, domain.ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}

	// The entry must land terminal failed, never stuck in processing.
	entries, _ := txnRepo.History(context.Background(), "acc-1", usecase.HistoryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}
	if entries[0].Status != domain.TransactionStatusFailed {
		t.Errorf("entry status = %s, want failed", entries[0].Status)
	}
}

func TestTransferUseCase_Execute_Authorization(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	seedAccount(accRepo, "acc-1", "user-1", 10_000)
	seedAccount(accRepo, "acc-2", "user-2", 0)

	_, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-2", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	// Admins may move money from any account.
	if _, err := uc.Execute(context.Background(), domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	}); err != nil {
		t.Errorf("admin transfer: unexpected error %v", err)
	}
}

func TestTransferUseCase_Execute_Validation(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 0)
	dest.Currency = "EUR"
	principal := domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}

	tests := []struct {
		name      string
		input     usecase.ExecuteInput
		errorType error
	}{
		{
			name: "same account",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionTypeTransfer,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-1",
				Amount:        decimal.NewFromInt(100),
			},
			errorType: domain.ErrSameAccount,
		},
		{
			name: "currency mismatch",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionTypeTransfer,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(100),
			},
			errorType: domain.ErrCurrencyMismatch,
		},
		{
			name: "zero amount",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionTypeTransfer,
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.Zero,
			},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name: "unknown type",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionType("chargeback"),
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(100),
			},
			errorType: domain.ErrInvalidTransactionType,
		},
		{
			name: "transfer without destination",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionTypeTransfer,
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(100),
			},
			errorType: domain.ErrMissingDestination,
		},
		{
			name: "unknown source account",
			input: usecase.ExecuteInput{
				Type:          domain.TransactionTypeTransfer,
				FromAccountID: "acc-missing",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(100),
			},
			errorType: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), principal, tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestTransferUseCase_Execute_InactiveAccounts(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 0)
	principal := domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}

	src.Status = domain.AccountStatusFrozen
	_, err := uc.Execute(context.Background(), principal, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Errorf("frozen source: expected ErrAccountNotActive, got %v", err)
	}

	src.Status = domain.AccountStatusActive
	dest.Status = domain.AccountStatusClosed
	_, err = uc.Execute(context.Background(), principal, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Errorf("closed destination: expected ErrAccountNotActive, got %v", err)
	}
}

func TestTransferUseCase_Execute_Withdrawal(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)

	txn, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeWithdrawal,
		FromAccountID: "acc-1",
		Amount:        decimal.NewFromInt(2_500),
		Channel:       domain.ChannelATM,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !src.Balance.Equal(decimal.NewFromInt(7_500)) {
		t.Errorf("balance = %s, want 7500", src.Balance)
	}
	if txn.ToAccountID != nil {
		t.Error("withdrawal must not reference a destination")
	}
}

func TestTransferUseCase_Execute_Deposit(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	dest := seedAccount(accRepo, "acc-1", "user-1", 500)

	txn, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:        domain.TransactionTypeDeposit,
		ToAccountID: "acc-1",
		Amount:      decimal.NewFromInt(3_000),
		Channel:     domain.ChannelBranch,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !dest.Balance.Equal(decimal.NewFromInt(3_500)) {
		t.Errorf("balance = %s, want 3500", dest.Balance)
	}
	if !txn.Fees.IsZero() {
		t.Errorf("deposits are never charged fees, got %s", txn.Fees.TotalFees)
	}
}

func TestTransferUseCase_Reverse(t *testing.T) {
	uc, accRepo, _, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	dest := seedAccount(accRepo, "acc-2", "user-2", 0)

	original, err := uc.Execute(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ExecuteInput{
		Type:          domain.TransactionTypeTransfer,
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(4_000),
	})
	if err != nil {
		t.Fatalf("setup transfer failed: %v", err)
	}

	t.Run("customer cannot reverse", func(t *testing.T) {
		_, err := uc.Reverse(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, original.ID, "dispute")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("admin reversal moves money back", func(t *testing.T) {
		reversal, err := uc.Reverse(context.Background(), domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}, original.ID, "dispute upheld")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reversal.Type != domain.TransactionTypeReversal {
			t.Errorf("type = %s, want reversal", reversal.Type)
		}
		if *reversal.FromAccountID != "acc-2" || *reversal.ToAccountID != "acc-1" {
			t.Error("reversal must swap the original accounts")
		}
		if reversal.Metadata["reversed_transaction_id"] != original.ID {
			t.Error("reversal must reference the original entry")
		}
		if !src.Balance.Equal(decimal.NewFromInt(10_000)) {
			t.Errorf("source balance = %s, want 10000 restored", src.Balance)
		}
		if !dest.Balance.Equal(decimal.Zero) {
			t.Errorf("destination balance = %s, want 0", dest.Balance)
		}
	})
}

func TestTransferUseCase_Reverse_OnlyCompletedTransfers(t *testing.T) {
	uc, accRepo, txnRepo, _ := newTransferFixture()
	src := seedAccount(accRepo, "acc-1", "user-1", 10_000)
	admin := domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}

	pending := &domain.Transaction{
		ID:            "txn-pending",
		Type:          domain.TransactionTypeTransfer,
		Status:        domain.TransactionStatusPending,
		Channel:       domain.ChannelOnline,
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
		FromAccountID: &src.ID,
		CreatedAt:     time.Now().UTC(),
	}
	_ = txnRepo.Create(context.Background(), pending)

	if _, err := uc.Reverse(context.Background(), admin, pending.ID, ""); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Errorf("pending original: expected ErrIllegalTransition, got %v", err)
	}

	deposit := &domain.Transaction{
		ID:          "txn-deposit",
		Type:        domain.TransactionTypeDeposit,
		Status:      domain.TransactionStatusCompleted,
		Channel:     domain.ChannelBranch,
		Amount:      decimal.NewFromInt(100),
		Currency:    "USD",
		ToAccountID: &src.ID,
		CreatedAt:   time.Now().UTC(),
	}
	_ = txnRepo.Create(context.Background(), deposit)

	if _, err := uc.Reverse(context.Background(), admin, deposit.ID, ""); !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Errorf("deposit original: expected ErrInvalidTransactionType, got %v", err)
	}
}
