package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType determines the interest rate and limit policy assigned at
// account creation.
type AccountType string

const (
	AccountTypeSavings        AccountType = "savings"
	AccountTypeCurrent        AccountType = "current"
	AccountTypeFixedDeposit   AccountType = "fixed_deposit"
	AccountTypeIslamicSavings AccountType = "islamic_savings"
	AccountTypeSalary         AccountType = "salary"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusFrozen   AccountStatus = "frozen"
	AccountStatusClosed   AccountStatus = "closed"
)

var accountStatusTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusActive:   {AccountStatusInactive, AccountStatusFrozen, AccountStatusClosed},
	AccountStatusInactive: {AccountStatusActive, AccountStatusClosed},
	AccountStatusFrozen:   {AccountStatusActive, AccountStatusClosed},
	AccountStatusClosed:   {},
}

// CanTransitionTo reports whether the status change is legal. Closed is
// terminal.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AccountPolicy holds the per-type defaults applied at account creation.
// Limits remain admin-overridable on the account itself.
type AccountPolicy struct {
	InterestRate   decimal.Decimal
	MinimumBalance decimal.Decimal
	DailyLimit     decimal.Decimal
	MonthlyLimit   decimal.Decimal
}

var accountPolicies = map[AccountType]AccountPolicy{
	AccountTypeSavings: {
		InterestRate:   decimal.RequireFromString("3.5"),
		MinimumBalance: decimal.NewFromInt(500),
		DailyLimit:     decimal.NewFromInt(50_000),
		MonthlyLimit:   decimal.NewFromInt(500_000),
	},
	AccountTypeCurrent: {
		InterestRate:   decimal.Zero,
		MinimumBalance: decimal.NewFromInt(1_000),
		DailyLimit:     decimal.NewFromInt(200_000),
		MonthlyLimit:   decimal.NewFromInt(2_000_000),
	},
	// Fixed-deposit debits are disabled categorically (see DebitsDisabled),
	// not through the numeric limits.
	AccountTypeFixedDeposit: {
		InterestRate:   decimal.RequireFromString("7.25"),
		MinimumBalance: decimal.Zero,
		DailyLimit:     decimal.Zero,
		MonthlyLimit:   decimal.Zero,
	},
	AccountTypeIslamicSavings: {
		InterestRate:   decimal.RequireFromString("2.75"),
		MinimumBalance: decimal.NewFromInt(500),
		DailyLimit:     decimal.NewFromInt(50_000),
		MonthlyLimit:   decimal.NewFromInt(500_000),
	},
	AccountTypeSalary: {
		InterestRate:   decimal.RequireFromString("1.5"),
		MinimumBalance: decimal.Zero,
		DailyLimit:     decimal.NewFromInt(100_000),
		MonthlyLimit:   decimal.NewFromInt(1_000_000),
	},
}

// PolicyFor returns the creation-time policy for an account type.
func PolicyFor(t AccountType) (AccountPolicy, bool) {
	p, ok := accountPolicies[t]
	return p, ok
}

// Account holds a customer balance together with its limit policy and
// lifecycle status. Balance is mutated only through the account store's
// ApplyDelta under the transfer orchestrator.
type Account struct {
	ID             string
	AccountNumber  string
	UserID         string
	Type           AccountType
	Title          string
	Currency       string
	Balance        decimal.Decimal
	Status         AccountStatus
	DailyLimit     decimal.Decimal
	MonthlyLimit   decimal.Decimal
	MinimumBalance decimal.Decimal
	InterestRate   decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AvailableBalance equals Balance: holds are not separately modeled.
func (a *Account) AvailableBalance() decimal.Decimal {
	return a.Balance
}

// IsActive reports whether the account may participate in transfers.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// DebitsDisabled reports the categorical zero-debit policy for
// fixed-deposit accounts.
func (a *Account) DebitsDisabled() bool {
	return a.Type == AccountTypeFixedDeposit
}

// ValidateDebit checks that debiting amount keeps the balance at or above
// the minimum-balance floor. A withdrawal down to exactly the minimum is
// allowed.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	remaining := a.Balance.Sub(amount)
	if remaining.LessThan(a.MinimumBalance) {
		return &InsufficientFundsError{
			Balance:        a.Balance,
			MinimumBalance: a.MinimumBalance,
			Requested:      amount,
			ShortBy:        a.MinimumBalance.Sub(remaining),
		}
	}
	return nil
}

// ValidateStatusChange checks the account status state machine. Closing
// additionally requires a zero balance.
func (a *Account) ValidateStatusChange(next AccountStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return ErrInvalidStatusChange
	}
	if next == AccountStatusClosed && !a.Balance.IsZero() {
		return ErrBalanceNotZero
	}
	return nil
}

// MaskedNumber returns the display form of the account number with all but
// the last four digits hidden.
func (a *Account) MaskedNumber() string {
	if len(a.AccountNumber) <= 4 {
		return a.AccountNumber
	}
	masked := make([]byte, len(a.AccountNumber))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(masked)-4:], a.AccountNumber[len(a.AccountNumber)-4:])
	return string(masked)
}
