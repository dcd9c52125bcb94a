package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/infrastructure/metrics"
)

// TransferUseCase is the transfer orchestrator: it validates a requested
// movement, locks the touched accounts, applies debit and credit
// atomically, finalizes the ledger entry and reports the outcome.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	limits      *LimitEvaluator
	fees        *domain.FeeSchedule
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase. retrier and metrics
// may be nil to disable commit retries and instrumentation.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	limits *LimitEvaluator,
	fees *domain.FeeSchedule,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		limits:      limits,
		fees:        fees,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     m,
	}
}

// ExecuteInput describes a requested money movement. The destination is
// one of: an internal account ID, an external account number plus claimed
// recipient title, or absent for withdrawals and bill payments.
type ExecuteInput struct {
	Type            domain.TransactionType
	FromAccountID   string
	ToAccountID     string
	ToAccountNumber string
	ToAccountTitle  string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	Channel         domain.Channel
	Subtype         string
	Metadata        map[string]any
}

// Execute runs the full transfer pipeline. Precondition failures are
// reported before any mutation; once the ledger entry exists, any failure
// leaves it in a terminal failed state with balances untouched.
func (uc *TransferUseCase) Execute(ctx context.Context, principal domain.Principal, input ExecuteInput) (*domain.Transaction, error) {
	if err := uc.validateInput(&input); err != nil {
		return nil, err
	}

	src, dest, err := uc.resolveAccounts(ctx, principal, &input)
	if err != nil {
		return nil, err
	}

	fees := uc.computeFees(input.Type, input.Subtype)
	currency, err := resolveCurrency(input.Currency, src, dest)
	if err != nil {
		return nil, err
	}

	// Precondition pre-checks; repeated under lock inside the commit.
	if src != nil {
		total := input.Amount.Add(fees.TotalFees)
		if err := src.ValidateDebit(total); err != nil {
			return nil, err
		}
		if _, err := uc.limits.CanDebit(ctx, nil, src, total, ""); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		Reference:   uc.idGen.Reference(now),
		Type:        input.Type,
		Subtype:     input.Subtype,
		Status:      domain.TransactionStatusPending,
		Channel:     input.Channel,
		Amount:      input.Amount,
		Currency:    currency,
		Description: input.Description,
		Fees:        fees,
		Metadata:    input.Metadata,
		CreatedAt:   now,
	}
	if src != nil {
		txn.FromAccountID = &src.ID
	}
	if dest != nil {
		txn.ToAccountID = &dest.ID
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	if err := uc.txnRepo.UpdateStatus(ctx, txn.ID, domain.TransactionStatusPending, domain.TransactionStatusProcessing, now); err != nil {
		uc.markFailed(ctx, txn)
		return nil, fmt.Errorf("%w: %v", domain.ErrCommitFailed, err)
	}
	txn.Status = domain.TransactionStatusProcessing

	commit := func() error { return uc.commit(ctx, txn, src, dest) }
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, commit)
	} else {
		err = commit()
	}
	if err != nil {
		uc.markFailed(ctx, txn)
		uc.recordFailure(err)
		if isPreconditionError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCommitFailed, err)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCompleted.WithLabelValues(string(txn.Type)).Inc()
		uc.metrics.TransactionDuration.Observe(time.Since(now).Seconds())
		uc.metrics.TransactionAmount.Observe(txn.Amount.InexactFloat64())
		if txn.Type == domain.TransactionTypeReversal {
			uc.metrics.TransactionsReversed.Inc()
		}
	}

	return txn, nil
}

func (uc *TransferUseCase) recordFailure(err error) {
	if uc.metrics == nil {
		return
	}

	var limitErr *domain.LimitExceededError
	switch {
	case errors.As(err, &limitErr):
		uc.metrics.LimitRejections.WithLabelValues(string(limitErr.Window)).Inc()
		uc.metrics.TransactionsFailed.WithLabelValues("limit_exceeded").Inc()
	case errors.Is(err, domain.ErrInsufficientFunds):
		uc.metrics.TransactionsFailed.WithLabelValues("insufficient_funds").Inc()
	case errors.Is(err, domain.ErrAccountNotActive):
		uc.metrics.TransactionsFailed.WithLabelValues("account_not_active").Inc()
	default:
		uc.metrics.TransactionsFailed.WithLabelValues("commit_failed").Inc()
	}
}

// Reverse creates a reversal entry for a completed transfer or payment,
// moving the principal amount back from the destination to the source.
// Fees are not refunded. Administrative capability is required.
func (uc *TransferUseCase) Reverse(ctx context.Context, principal domain.Principal, transactionID, description string) (*domain.Transaction, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	original, err := uc.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if original.Status != domain.TransactionStatusCompleted {
		return nil, domain.ErrIllegalTransition
	}
	if original.Type != domain.TransactionTypeTransfer && original.Type != domain.TransactionTypePayment {
		return nil, domain.ErrInvalidTransactionType
	}
	if original.FromAccountID == nil || original.ToAccountID == nil {
		return nil, domain.ErrMissingDestination
	}

	return uc.Execute(ctx, principal, ExecuteInput{
		Type:          domain.TransactionTypeReversal,
		FromAccountID: *original.ToAccountID,
		ToAccountID:   *original.FromAccountID,
		Amount:        original.Amount,
		Currency:      original.Currency,
		Description:   description,
		Channel:       original.Channel,
		Subtype:       domain.SubtypeReversal,
		Metadata:      map[string]any{"reversed_transaction_id": original.ID},
	})
}

func (uc *TransferUseCase) validateInput(input *ExecuteInput) error {
	switch input.Type {
	case domain.TransactionTypeTransfer, domain.TransactionTypePayment,
		domain.TransactionTypeWithdrawal, domain.TransactionTypeDeposit,
		domain.TransactionTypeReversal:
	default:
		return domain.ErrInvalidTransactionType
	}

	if input.Channel == "" {
		input.Channel = domain.ChannelOnline
	}
	if !input.Channel.Valid() {
		return domain.ErrInvalidChannel
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return err
	}

	return domain.ValidateMetadata(input.Metadata)
}

// resolveAccounts loads and authorizes the accounts touched by the
// request. Precondition order follows the contract: existence and
// ownership first, then status, then recipient verification.
func (uc *TransferUseCase) resolveAccounts(ctx context.Context, principal domain.Principal, input *ExecuteInput) (src, dest *domain.Account, err error) {
	if input.Type != domain.TransactionTypeDeposit {
		if input.FromAccountID == "" {
			return nil, nil, domain.ErrMissingSource
		}
		src, err = uc.accountRepo.GetByID(ctx, input.FromAccountID)
		if err != nil {
			return nil, nil, err
		}
		if !principal.CanAccessAccount(src) {
			return nil, nil, domain.ErrUnauthorized
		}
		if !src.IsActive() {
			return nil, nil, domain.ErrAccountNotActive
		}
		if src.DebitsDisabled() {
			return nil, nil, domain.ErrDebitsDisabled
		}
	}

	switch {
	case input.ToAccountID != "":
		dest, err = uc.accountRepo.GetByID(ctx, input.ToAccountID)
		if err != nil {
			return nil, nil, err
		}
	case input.ToAccountNumber != "":
		// Third-party transfer: resolve by account number and verify the
		// claimed recipient title with the loose substring check.
		dest, err = uc.accountRepo.GetByAccountNumber(ctx, input.ToAccountNumber)
		if err != nil {
			return nil, nil, err
		}
		if !domain.MatchRecipientTitle(input.ToAccountTitle, dest.Title) {
			return nil, nil, domain.ErrRecipientMismatch
		}
		if input.Subtype == "" {
			input.Subtype = domain.SubtypeExternalTransfer
		}
	}

	switch input.Type {
	case domain.TransactionTypeDeposit:
		if dest == nil {
			return nil, nil, domain.ErrMissingDestination
		}
		if !principal.CanAccessAccount(dest) {
			return nil, nil, domain.ErrUnauthorized
		}
	case domain.TransactionTypeWithdrawal:
		if dest != nil {
			return nil, nil, domain.ErrMissingDestination
		}
	case domain.TransactionTypeTransfer, domain.TransactionTypeReversal:
		if dest == nil {
			return nil, nil, domain.ErrMissingDestination
		}
	case domain.TransactionTypePayment:
		if dest == nil && len(input.Metadata) == 0 {
			return nil, nil, domain.ErrMissingDestination
		}
	}

	if dest != nil {
		if src != nil && src.ID == dest.ID {
			return nil, nil, domain.ErrSameAccount
		}
		if !dest.IsActive() {
			return nil, nil, domain.ErrAccountNotActive
		}
	}

	return src, dest, nil
}

func (uc *TransferUseCase) computeFees(txType domain.TransactionType, subtype string) domain.FeeBreakdown {
	if txType == domain.TransactionTypeDeposit {
		return domain.FeeBreakdown{
			TransactionFee: decimal.Zero,
			ProcessingFee:  decimal.Zero,
			OtherCharges:   decimal.Zero,
			TotalFees:      decimal.Zero,
		}
	}
	return uc.fees.Compute(txType, subtype)
}

// commit is the atomic unit of work: lock accounts in ascending ID order,
// re-verify funds and limits under the lock, apply the balance deltas,
// write the after-balance snapshots and finalize the entry as completed.
// Either all of it becomes visible or none of it does.
func (uc *TransferUseCase) commit(ctx context.Context, txn *domain.Transaction, src, dest *domain.Account) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ids := txn.Participants()
	sort.Strings(ids)

	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return err
	}
	if len(locked) != len(ids) {
		return domain.ErrAccountNotFound
	}

	byID := make(map[string]*domain.Account, len(locked))
	for _, a := range locked {
		byID[a.ID] = a
	}

	now := time.Now().UTC()
	total := txn.DebitTotal()

	if src != nil {
		lockedSrc := byID[src.ID]
		if lockedSrc == nil {
			return domain.ErrAccountNotFound
		}
		if !lockedSrc.IsActive() {
			return domain.ErrAccountNotActive
		}
		if err := lockedSrc.ValidateDebit(total); err != nil {
			return err
		}
		// The entry under commit is already in processing; exclude it so
		// the window sum does not count the proposed amount twice.
		if _, err := uc.limits.CanDebit(ctx, tx, lockedSrc, total, txn.ID); err != nil {
			return err
		}

		before := lockedSrc.Balance
		after := before.Sub(total)
		txn.FromBalanceBefore = &before
		txn.FromBalanceAfter = &after

		if err := uc.accountRepo.ApplyDelta(ctx, tx, lockedSrc.ID, total.Neg(), now); err != nil {
			return err
		}
	}

	if dest != nil {
		lockedDest := byID[dest.ID]
		if lockedDest == nil {
			return domain.ErrAccountNotFound
		}
		if !lockedDest.IsActive() {
			return domain.ErrAccountNotActive
		}

		before := lockedDest.Balance
		after := before.Add(txn.Amount)
		txn.ToBalanceBefore = &before
		txn.ToBalanceAfter = &after

		if err := uc.accountRepo.ApplyDelta(ctx, tx, lockedDest.ID, txn.Amount, now); err != nil {
			return err
		}
	}

	txn.Status = domain.TransactionStatusCompleted
	txn.ProcessedAt = &now

	if err := uc.txnRepo.FinalizeCompleted(ctx, tx, txn); err != nil {
		return err
	}

	if err := uc.writeNotifications(ctx, tx, txn, src, dest, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// writeNotifications records one outbox event per participating owner
// inside the same atomic unit; dispatch happens after commit.
func (uc *TransferUseCase) writeNotifications(ctx context.Context, tx Transaction, txn *domain.Transaction, src, dest *domain.Account, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	owners := make(map[string]string) // userID -> observing account
	if src != nil {
		owners[src.UserID] = src.ID
	}
	if dest != nil {
		if _, seen := owners[dest.UserID]; !seen {
			owners[dest.UserID] = dest.ID
		}
	}

	for userID, accountID := range owners {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			UserID:        userID,
			AggregateID:   txn.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.EventTypeTransactionCompleted,
			Payload: map[string]any{
				"transaction_id": txn.ID,
				"reference":      txn.Reference,
				"type":           string(txn.Type),
				"direction":      string(domain.ClassifyDirection(txn, accountID)),
				"amount":         txn.Amount.String(),
				"currency":       txn.Currency,
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	return nil
}

// markFailed guarantees the entry reaches a terminal state even when the
// request context is already gone.
func (uc *TransferUseCase) markFailed(ctx context.Context, txn *domain.Transaction) {
	_ = uc.txnRepo.MarkFailed(context.WithoutCancel(ctx), txn.ID, time.Now().UTC())
	txn.Status = domain.TransactionStatusFailed
}

func resolveCurrency(requested string, src, dest *domain.Account) (string, error) {
	if src != nil && dest != nil && src.Currency != dest.Currency {
		return "", domain.ErrCurrencyMismatch
	}

	actual := ""
	if src != nil {
		actual = src.Currency
	} else if dest != nil {
		actual = dest.Currency
	}

	if requested == "" {
		return actual, nil
	}
	if actual != "" && requested != actual {
		return "", domain.ErrCurrencyMismatch
	}
	if actual == "" {
		if err := domain.ValidateCurrency(requested); err != nil {
			return "", err
		}
		return requested, nil
	}
	return actual, nil
}

// isPreconditionError reports whether the failure is a business rule the
// caller violated rather than an infrastructure fault.
func isPreconditionError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrLimitExceeded) ||
		errors.Is(err, domain.ErrAccountNotActive) ||
		errors.Is(err, domain.ErrDebitsDisabled) ||
		errors.Is(err, domain.ErrAccountNotFound)
}
