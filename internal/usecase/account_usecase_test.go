package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
	"github.com/corebank/ledger/internal/usecase/mocks"
)

func newAccountFixture() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockTransactionRepository, *mocks.MockOutboxRepository) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	idGen := mocks.NewMockIDGenerator()

	transferUC := usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accRepo,
		txnRepo,
		outboxRepo,
		usecase.NewLimitEvaluator(txnRepo),
		domain.NewFeeSchedule(decimal.NewFromInt(25)),
		idGen,
		mocks.NewMockRetrier(),
		nil,
	)

	uc := usecase.NewAccountUseCase(accRepo, txnRepo, outboxRepo, transferUC, idGen, nil)
	return uc, accRepo, txnRepo, outboxRepo
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	uc, _, txnRepo, outboxRepo := newAccountFixture()
	principal := domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}

	account, err := uc.CreateAccount(context.Background(), principal, usecase.CreateAccountInput{
		UserID:         "user-1",
		Type:           domain.AccountTypeSavings,
		Title:          "Rainy Day Fund",
		Currency:       "USD",
		InitialDeposit: decimal.NewFromInt(5_000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Status != domain.AccountStatusActive {
		t.Errorf("status = %s, want active", account.Status)
	}
	if !account.Balance.Equal(decimal.NewFromInt(5_000)) {
		t.Errorf("balance = %s, want 5000", account.Balance)
	}
	if !account.DailyLimit.Equal(decimal.NewFromInt(50_000)) {
		t.Errorf("daily limit = %s, want savings policy default 50000", account.DailyLimit)
	}
	if !account.MinimumBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("minimum balance = %s, want 500", account.MinimumBalance)
	}
	if len(account.AccountNumber) == 0 {
		t.Error("account number must be assigned")
	}

	// The opening deposit is an ordinary ledger entry.
	entries, _ := txnRepo.History(context.Background(), account.ID, usecase.HistoryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected the initial deposit entry, got %d entries", len(entries))
	}
	if entries[0].Subtype != domain.SubtypeInitialDeposit {
		t.Errorf("subtype = %s, want %s", entries[0].Subtype, domain.SubtypeInitialDeposit)
	}
	if entries[0].Status != domain.TransactionStatusCompleted {
		t.Errorf("entry status = %s, want completed", entries[0].Status)
	}

	var created bool
	for _, e := range outboxRepo.Events {
		if e.EventType == domain.EventTypeAccountCreated {
			created = true
		}
	}
	if !created {
		t.Error("expected an account-created event")
	}
}

func TestAccountUseCase_CreateAccount_ZeroDeposit(t *testing.T) {
	uc, _, txnRepo, _ := newAccountFixture()
	principal := domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}

	account, err := uc.CreateAccount(context.Background(), principal, usecase.CreateAccountInput{
		UserID:   "user-1",
		Type:     domain.AccountTypeSalary,
		Title:    "Payroll",
		Currency: "PKR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", account.Balance)
	}

	// Every account history starts with an initial deposit entry, even a
	// zero-amount one.
	entries, _ := txnRepo.History(context.Background(), account.ID, usecase.HistoryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected the zero-amount marker entry, got %d entries", len(entries))
	}
	if !entries[0].Amount.IsZero() {
		t.Errorf("marker amount = %s, want 0", entries[0].Amount)
	}
}

func TestAccountUseCase_CreateAccount_Validation(t *testing.T) {
	uc, _, _, _ := newAccountFixture()
	principal := domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}

	tests := []struct {
		name      string
		input     usecase.CreateAccountInput
		errorType error
	}{
		{
			name: "unknown account type",
			input: usecase.CreateAccountInput{
				UserID: "user-1", Type: domain.AccountType("checking"), Title: "X", Currency: "USD",
			},
			errorType: domain.ErrInvalidAccountType,
		},
		{
			name: "empty title",
			input: usecase.CreateAccountInput{
				UserID: "user-1", Type: domain.AccountTypeSavings, Title: "  ", Currency: "USD",
			},
			errorType: domain.ErrInvalidAccountTitle,
		},
		{
			name: "unknown currency",
			input: usecase.CreateAccountInput{
				UserID: "user-1", Type: domain.AccountTypeSavings, Title: "X", Currency: "XYZ",
			},
			errorType: domain.ErrInvalidCurrency,
		},
		{
			name: "negative initial deposit",
			input: usecase.CreateAccountInput{
				UserID: "user-1", Type: domain.AccountTypeSavings, Title: "X", Currency: "USD",
				InitialDeposit: decimal.NewFromInt(-1),
			},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name: "opening for another user",
			input: usecase.CreateAccountInput{
				UserID: "user-2", Type: domain.AccountTypeSavings, Title: "X", Currency: "USD",
			},
			errorType: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateAccount(context.Background(), principal, tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	uc, accRepo, _, _ := newAccountFixture()
	seedAccount(accRepo, "acc-1", "user-1", 1_000)

	if _, err := uc.GetAccount(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, "acc-1"); err != nil {
		t.Errorf("owner access: unexpected error %v", err)
	}
	if _, err := uc.GetAccount(context.Background(), domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}, "acc-1"); err != nil {
		t.Errorf("admin access: unexpected error %v", err)
	}
	if _, err := uc.GetAccount(context.Background(), domain.Principal{UserID: "user-2", Role: domain.RoleCustomer}, "acc-1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("stranger access: expected ErrUnauthorized, got %v", err)
	}
	if _, err := uc.GetAccount(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, "acc-missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("missing account: expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountUseCase_ChangeStatus(t *testing.T) {
	uc, accRepo, _, _ := newAccountFixture()
	admin := domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}

	t.Run("customer cannot change status", func(t *testing.T) {
		seedAccount(accRepo, "acc-1", "user-1", 1_000)
		_, err := uc.ChangeStatus(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, "acc-1", domain.AccountStatusFrozen)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("freeze and reopen", func(t *testing.T) {
		seedAccount(accRepo, "acc-2", "user-1", 1_000)

		frozen, err := uc.ChangeStatus(context.Background(), admin, "acc-2", domain.AccountStatusFrozen)
		if err != nil {
			t.Fatalf("freeze: unexpected error %v", err)
		}
		if frozen.Status != domain.AccountStatusFrozen {
			t.Errorf("status = %s, want frozen", frozen.Status)
		}

		reopened, err := uc.ChangeStatus(context.Background(), admin, "acc-2", domain.AccountStatusActive)
		if err != nil {
			t.Fatalf("reopen: unexpected error %v", err)
		}
		if reopened.Status != domain.AccountStatusActive {
			t.Errorf("status = %s, want active", reopened.Status)
		}
	})

	t.Run("close requires zero balance", func(t *testing.T) {
		seedAccount(accRepo, "acc-3", "user-1", 100)
		if _, err := uc.ChangeStatus(context.Background(), admin, "acc-3", domain.AccountStatusClosed); !errors.Is(err, domain.ErrBalanceNotZero) {
			t.Errorf("expected ErrBalanceNotZero, got %v", err)
		}

		seedAccount(accRepo, "acc-4", "user-1", 0)
		closed, err := uc.ChangeStatus(context.Background(), admin, "acc-4", domain.AccountStatusClosed)
		if err != nil {
			t.Fatalf("close: unexpected error %v", err)
		}

		// Closed is terminal.
		if _, err := uc.ChangeStatus(context.Background(), admin, closed.ID, domain.AccountStatusActive); !errors.Is(err, domain.ErrInvalidStatusChange) {
			t.Errorf("reopen closed: expected ErrInvalidStatusChange, got %v", err)
		}
	})
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	uc, accRepo, _, _ := newAccountFixture()
	seedAccount(accRepo, "acc-1", "user-1", 100)
	seedAccount(accRepo, "acc-2", "user-2", 200)

	if _, err := uc.ListAccounts(context.Background(), domain.Principal{UserID: "user-1", Role: domain.RoleCustomer}, usecase.ListAccountsInput{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("customer list: expected ErrUnauthorized, got %v", err)
	}

	accounts, err := uc.ListAccounts(context.Background(), domain.Principal{UserID: "ops-1", Role: domain.RoleAdmin}, usecase.ListAccountsInput{})
	if err != nil {
		t.Fatalf("admin list: unexpected error %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("len(accounts) = %d, want 2", len(accounts))
	}
}
