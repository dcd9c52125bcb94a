package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
)

// LimitCheck is the structured result of a ceiling evaluation, exposed so
// callers can render actionable error text.
type LimitCheck struct {
	Allowed   bool
	Window    domain.LimitWindow
	Used      decimal.Decimal
	Limit     decimal.Decimal
	Remaining decimal.Decimal
	ExceedsBy decimal.Decimal
}

// LimitEvaluator decides whether a proposed debit fits within the
// account's daily and monthly ceilings.
type LimitEvaluator struct {
	txnRepo TransactionRepository
	now     func() time.Time
}

// NewLimitEvaluator creates a new LimitEvaluator.
func NewLimitEvaluator(txnRepo TransactionRepository) *LimitEvaluator {
	return &LimitEvaluator{
		txnRepo: txnRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CanDebit sums completed and processing debits (entries where the account
// is the source, fees included) over the current UTC calendar day and
// month, adds the proposed amount and compares against the account limits.
// tx may be nil for a pre-check outside the commit; inside the commit it
// re-runs under the account lock, with excludeID set to the entry being
// committed so its own processing row is not counted against the window.
// Both windows must pass; when both fail the larger shortfall is reported.
func (e *LimitEvaluator) CanDebit(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, excludeID string) (*LimitCheck, error) {
	if account.DebitsDisabled() {
		return nil, domain.ErrDebitsDisabled
	}

	now := e.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	usedDay, err := e.txnRepo.SumDebits(ctx, tx, account.ID, dayStart, now, excludeID)
	if err != nil {
		return nil, err
	}

	usedMonth, err := e.txnRepo.SumDebits(ctx, tx, account.ID, monthStart, now, excludeID)
	if err != nil {
		return nil, err
	}

	daily := evaluateWindow(domain.LimitWindowDaily, usedDay, account.DailyLimit, amount)
	monthly := evaluateWindow(domain.LimitWindowMonthly, usedMonth, account.MonthlyLimit, amount)

	switch {
	case !daily.Allowed && !monthly.Allowed:
		if monthly.ExceedsBy.GreaterThan(daily.ExceedsBy) {
			return monthly, limitError(monthly, amount)
		}
		return daily, limitError(daily, amount)
	case !daily.Allowed:
		return daily, limitError(daily, amount)
	case !monthly.Allowed:
		return monthly, limitError(monthly, amount)
	}

	return daily, nil
}

// evaluateWindow checks a single ceiling. A non-positive limit means no
// ceiling is configured for that window.
func evaluateWindow(window domain.LimitWindow, used, limit, amount decimal.Decimal) *LimitCheck {
	check := &LimitCheck{
		Allowed: true,
		Window:  window,
		Used:    used,
		Limit:   limit,
	}

	if limit.Sign() <= 0 {
		check.Remaining = decimal.Zero
		check.ExceedsBy = decimal.Zero
		return check
	}

	check.Remaining = decimal.Max(limit.Sub(used), decimal.Zero)

	projected := used.Add(amount)
	if projected.GreaterThan(limit) {
		check.Allowed = false
		check.ExceedsBy = projected.Sub(limit)
	} else {
		check.ExceedsBy = decimal.Zero
	}

	return check
}

func limitError(check *LimitCheck, amount decimal.Decimal) error {
	return &domain.LimitExceededError{
		Window:    check.Window,
		Used:      check.Used,
		Limit:     check.Limit,
		Requested: amount,
		ExceedsBy: check.ExceedsBy,
	}
}
