package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
)

// LedgerUseCase serves the read side of the ledger (history, summaries,
// receipts) and the few non-monetary mutations: cancellation and flagging.
// It never derives balances; the account store owns those.
type LedgerUseCase struct {
	txnRepo     TransactionRepository
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	cache       Cache
}

// NewLedgerUseCase creates a new LedgerUseCase. cache may be nil.
func NewLedgerUseCase(txnRepo TransactionRepository, accountRepo AccountRepository, ledgerRepo LedgerRepository, cache Cache) *LedgerUseCase {
	return &LedgerUseCase{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
	}
}

// GetTransaction retrieves a ledger entry, authorized only for principals
// owning a participating account.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, principal domain.Principal, id string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeParticipant(ctx, principal, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// HistoryEntry pairs a ledger entry with its direction as experienced by
// the observed account.
type HistoryEntry struct {
	Transaction *domain.Transaction
	Direction   domain.Direction
}

// History returns the account's ledger entries newest first, each
// classified from the account's point of view.
func (uc *LedgerUseCase) History(ctx context.Context, principal domain.Principal, accountID string, filter HistoryFilter) ([]HistoryEntry, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessAccount(account) {
		return nil, domain.ErrUnauthorized
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	txns, err := uc.txnRepo.History(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, len(txns))
	for i, txn := range txns {
		entries[i] = HistoryEntry{
			Transaction: txn,
			Direction:   domain.ClassifyDirection(txn, accountID),
		}
	}

	return entries, nil
}

// MonthlySummaryResult aggregates completed entries by type for one
// calendar month.
type MonthlySummaryResult struct {
	AccountID string      `json:"account_id"`
	Year      int         `json:"year"`
	Month     time.Month  `json:"month"`
	Totals    []TypeTotal `json:"totals"`
}

// MonthlySummary aggregates an account's completed transactions for a
// calendar month. Past months are immutable and served from cache when one
// is configured.
func (uc *LedgerUseCase) MonthlySummary(ctx context.Context, principal domain.Principal, accountID string, year int, month time.Month) (*MonthlySummaryResult, error) {
	if month < time.January || month > time.December || year < 1970 {
		return nil, fmt.Errorf("%w: invalid year/month", domain.ErrInvalidAmount)
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessAccount(account) {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	pastMonth := year < now.Year() || (year == now.Year() && month < now.Month())
	cacheKey := fmt.Sprintf("summary:%s:%d-%02d", accountID, year, month)

	if uc.cache != nil && pastMonth {
		if raw, err := uc.cache.Get(ctx, cacheKey); err == nil && len(raw) > 0 {
			var cached MonthlySummaryResult
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	totals, err := uc.txnRepo.MonthlySummary(ctx, accountID, year, month)
	if err != nil {
		return nil, err
	}

	result := &MonthlySummaryResult{
		AccountID: accountID,
		Year:      year,
		Month:     month,
		Totals:    totals,
	}

	if uc.cache != nil && pastMonth {
		if raw, err := json.Marshal(result); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, raw, time.Hour)
		}
	}

	return result, nil
}

// Cancel cancels a pending transaction. Once processing has begun the
// request is refused; only completion or failure are reachable from there.
func (uc *LedgerUseCase) Cancel(ctx context.Context, principal domain.Principal, id string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeParticipant(ctx, principal, txn); err != nil {
		return nil, err
	}

	if txn.Status != domain.TransactionStatusPending {
		return nil, domain.ErrCancelNotPending
	}

	now := time.Now().UTC()
	if err := uc.txnRepo.UpdateStatus(ctx, id, domain.TransactionStatusPending, domain.TransactionStatusCancelled, now); err != nil {
		return nil, err
	}

	txn.Status = domain.TransactionStatusCancelled
	txn.ProcessedAt = &now
	return txn, nil
}

// Flag sets the administrative annotation on an entry. The annotation
// never alters monetary facts.
func (uc *LedgerUseCase) Flag(ctx context.Context, principal domain.Principal, id string, flagged bool, reason string) (*domain.Transaction, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.txnRepo.UpdateFlag(ctx, id, flagged, reason, now); err != nil {
		return nil, err
	}

	txn.Flagged = flagged
	txn.FlagReason = reason
	return txn, nil
}

// ConservationResult is the outcome of the system-wide money check.
type ConservationResult struct {
	Consistent     bool            `json:"consistent"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Expected       decimal.Decimal `json:"expected_balance"`
}

// CheckConservation verifies that the sum of balances equals deposits
// minus withdrawals minus fees charged: internal transfers move money,
// fees remove it from circulation, nothing else creates or destroys it.
func (uc *LedgerUseCase) CheckConservation(ctx context.Context) (*ConservationResult, error) {
	report, err := uc.ledgerRepo.Conservation(ctx)
	if err != nil {
		return nil, err
	}

	expected := report.TotalDeposited.Sub(report.TotalWithdrawn).Sub(report.TotalFees)

	return &ConservationResult{
		Consistent:     report.TotalBalance.Equal(expected),
		TotalBalance:   report.TotalBalance,
		TotalFees:      report.TotalFees,
		TotalDeposited: report.TotalDeposited,
		TotalWithdrawn: report.TotalWithdrawn,
		Expected:       expected,
	}, nil
}

func (uc *LedgerUseCase) authorizeParticipant(ctx context.Context, principal domain.Principal, txn *domain.Transaction) error {
	if principal.IsAdmin() {
		return nil
	}

	for _, accountID := range txn.Participants() {
		account, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			continue
		}
		if principal.CanAccessAccount(account) {
			return nil
		}
	}

	return domain.ErrUnauthorized
}
