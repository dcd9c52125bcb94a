package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Lookup errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Authorization errors
	ErrUnauthorized = errors.New("principal does not own or participate in this resource")

	// State errors
	ErrAccountNotActive    = errors.New("account is not active")
	ErrDebitsDisabled      = errors.New("debits are not permitted for this account type")
	ErrBalanceNotZero      = errors.New("account balance must be zero before closing")
	ErrInvalidStatusChange = errors.New("invalid account status change")
	ErrIllegalTransition   = errors.New("illegal transaction status transition")
	ErrCancelNotPending    = errors.New("only pending transactions can be cancelled")

	// Funds and limit errors; matched by the structured types below.
	ErrInsufficientFunds = errors.New("debit would breach minimum balance")
	ErrLimitExceeded     = errors.New("transaction limit exceeded")

	// Transfer validation errors
	ErrRecipientMismatch      = errors.New("recipient title does not match destination account")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("unsupported transaction type")
	ErrInvalidAccountType     = errors.New("unsupported account type")
	ErrInvalidChannel         = errors.New("unsupported channel")
	ErrCurrencyMismatch       = errors.New("cannot transfer between different currencies")
	ErrMissingSource          = errors.New("transaction type requires a source account")
	ErrMissingDestination     = errors.New("transaction type requires a destination")

	// ErrCommitFailed marks an atomic commit that failed after the ledger
	// entry was created. The entry is left in the failed state and the
	// request may safely be resubmitted.
	ErrCommitFailed = errors.New("commit failed, transaction marked failed")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// LimitWindow identifies which rolling-window ceiling was evaluated.
type LimitWindow string

const (
	LimitWindowDaily   LimitWindow = "daily"
	LimitWindowMonthly LimitWindow = "monthly"
)

// InsufficientFundsError carries the exact shortfall so callers can render
// an actionable message.
type InsufficientFundsError struct {
	Balance        decimal.Decimal
	MinimumBalance decimal.Decimal
	Requested      decimal.Decimal
	ShortBy        decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, minimum %s, requested %s (short by %s)",
		e.Balance, e.MinimumBalance, e.Requested, e.ShortBy)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LimitExceededError carries the window usage detail required to suggest a
// corrective amount.
type LimitExceededError struct {
	Window    LimitWindow
	Used      decimal.Decimal
	Limit     decimal.Decimal
	Requested decimal.Decimal
	ExceedsBy decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded: used %s of %s, requested %s (exceeds by %s)",
		e.Window, e.Used, e.Limit, e.Requested, e.ExceedsBy)
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}
