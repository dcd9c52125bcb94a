package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account lifecycle. All balance changes route
// through the transfer orchestrator.
type AccountUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	transferUC  *TransferUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. outboxRepo and metrics
// may be nil.
func NewAccountUseCase(accountRepo AccountRepository, txnRepo TransactionRepository, outboxRepo OutboxRepository, transferUC *TransferUseCase, idGen IDGenerator, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		transferUC:  transferUC,
		idGen:       idGen,
		metrics:     m,
	}
}

// CreateAccountInput represents input for opening an account.
type CreateAccountInput struct {
	UserID         string
	Type           domain.AccountType
	Title          string
	Currency       string
	InitialDeposit decimal.Decimal
}

// CreateAccount opens an account with its type policy defaults and records
// the initial deposit transaction. A zero initial deposit still produces a
// ledger entry so every account history starts with one.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, principal domain.Principal, input CreateAccountInput) (*domain.Account, error) {
	if !principal.IsAdmin() && principal.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	policy, ok := domain.PolicyFor(input.Type)
	if !ok {
		return nil, domain.ErrInvalidAccountType
	}
	if err := domain.ValidateAccountTitle(input.Title); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if input.InitialDeposit.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		AccountNumber:  uc.idGen.AccountNumber(),
		UserID:         input.UserID,
		Type:           input.Type,
		Title:          input.Title,
		Currency:       input.Currency,
		Balance:        decimal.Zero,
		Status:         domain.AccountStatusActive,
		DailyLimit:     policy.DailyLimit,
		MonthlyLimit:   policy.MonthlyLimit,
		MinimumBalance: policy.MinimumBalance,
		InterestRate:   policy.InterestRate,
		Version:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		_ = uc.outboxRepo.Create(ctx, nil, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			UserID:        account.UserID,
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountCreated,
			Payload: map[string]any{
				"account_id":     account.ID,
				"account_number": account.MaskedNumber(),
				"type":           string(account.Type),
			},
			CreatedAt: now,
		})
	}
	if uc.metrics != nil {
		uc.metrics.AccountsCreated.WithLabelValues(string(account.Type)).Inc()
	}

	if input.InitialDeposit.IsPositive() {
		if _, err := uc.transferUC.Execute(ctx, principal, ExecuteInput{
			Type:        domain.TransactionTypeDeposit,
			ToAccountID: account.ID,
			Amount:      input.InitialDeposit,
			Currency:    input.Currency,
			Description: "initial deposit",
			Channel:     domain.ChannelBranch,
			Subtype:     domain.SubtypeInitialDeposit,
		}); err != nil {
			return nil, err
		}
		return uc.accountRepo.GetByID(ctx, account.ID)
	}

	// Zero-amount opening marker, written terminal directly.
	zero := decimal.Zero
	marker := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Reference:       uc.idGen.Reference(now),
		Type:            domain.TransactionTypeDeposit,
		Subtype:         domain.SubtypeInitialDeposit,
		Status:          domain.TransactionStatusCompleted,
		Channel:         domain.ChannelBranch,
		Amount:          decimal.Zero,
		Currency:        input.Currency,
		Description:     "initial deposit",
		ToAccountID:     &account.ID,
		ToBalanceBefore: &zero,
		ToBalanceAfter:  &zero,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
	if err := uc.txnRepo.Create(ctx, marker); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account the principal may access.
func (uc *AccountUseCase) GetAccount(ctx context.Context, principal domain.Principal, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessAccount(account) {
		return nil, domain.ErrUnauthorized
	}
	return account, nil
}

// ChangeStatus applies an administrative status change (freeze, reopen,
// close). Closing requires a zero balance and is irreversible.
func (uc *AccountUseCase) ChangeStatus(ctx context.Context, principal domain.Principal, id string, next domain.AccountStatus) (*domain.Account, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := account.ValidateStatusChange(next); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, id, next, now); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		_ = uc.outboxRepo.Create(ctx, nil, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			UserID:        account.UserID,
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountStatusChanged,
			Payload: map[string]any{
				"account_id": account.ID,
				"from":       string(account.Status),
				"to":         string(next),
			},
			CreatedAt: now,
		})
	}
	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues("status_change").Inc()
	}

	account.Status = next
	account.UpdatedAt = now
	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination. Administrative only.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, principal domain.Principal, input ListAccountsInput) ([]*domain.Account, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
