package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of money-movement kinds. Adding a type
// forces every consumer (fee schedule, direction classifier, limit
// evaluator) to be updated deliberately.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeFee        TransactionType = "fee"
	TransactionTypeInterest   TransactionType = "interest"
	TransactionTypeReversal   TransactionType = "reversal"
	TransactionTypeRefund     TransactionType = "refund"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypePayment, TransactionTypeFee, TransactionTypeInterest,
		TransactionTypeReversal, TransactionTypeRefund:
		return true
	}
	return false
}

// Well-known subtypes. Subtype is otherwise a free-form qualifier.
const (
	SubtypeExternalTransfer = "external_transfer"
	SubtypeBillPayment      = "bill_payment"
	SubtypeInitialDeposit   = "initial_deposit"
	SubtypeReversal         = "reversal"
)

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// Cancellation is only reachable from pending; completed, failed and
// cancelled are terminal.
var transactionStatusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
}

// CanTransitionTo reports whether the status change is legal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TransactionStatus) Terminal() bool {
	return len(transactionStatusTransitions[s]) == 0
}

// Channel identifies where a transaction originated.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelMobile Channel = "mobile"
	ChannelATM    Channel = "atm"
	ChannelBranch Channel = "branch"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelOnline, ChannelMobile, ChannelATM, ChannelBranch:
		return true
	}
	return false
}

// FeeBreakdown is the fee detail attached to a ledger entry.
type FeeBreakdown struct {
	TransactionFee decimal.Decimal
	ProcessingFee  decimal.Decimal
	OtherCharges   decimal.Decimal
	TotalFees      decimal.Decimal
}

// IsZero reports whether no fees were charged.
func (f FeeBreakdown) IsZero() bool {
	return f.TotalFees.IsZero()
}

// Transaction is a single ledger entry. Once completed it is immutable
// except for the Flagged/FlagReason annotation fields, which do not alter
// monetary facts.
type Transaction struct {
	ID          string
	Reference   string
	Type        TransactionType
	Subtype     string
	Status      TransactionStatus
	Channel     Channel
	Amount      decimal.Decimal
	Currency    string
	Description string

	// Account references; either may be absent depending on type.
	FromAccountID *string
	ToAccountID   *string

	// Balance snapshots for self-contained audit history.
	FromBalanceBefore *decimal.Decimal
	FromBalanceAfter  *decimal.Decimal
	ToBalanceBefore   *decimal.Decimal
	ToBalanceAfter    *decimal.Decimal

	Fees FeeBreakdown

	// Third-party / bill-payment detail.
	Metadata map[string]any

	Flagged    bool
	FlagReason string

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Validate checks amount and the per-type account reference requirements.
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if !t.Channel.Valid() {
		return ErrInvalidChannel
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	// A zero amount is legal only for the initial-deposit marker written
	// at account creation.
	if t.Amount.IsZero() && !(t.Type == TransactionTypeDeposit && t.Subtype == SubtypeInitialDeposit) {
		return ErrInvalidAmount
	}

	switch t.Type {
	case TransactionTypeDeposit:
		if t.ToAccountID == nil {
			return ErrMissingDestination
		}
	case TransactionTypeWithdrawal:
		if t.FromAccountID == nil {
			return ErrMissingSource
		}
	case TransactionTypeTransfer, TransactionTypeReversal:
		if t.FromAccountID == nil {
			return ErrMissingSource
		}
		if t.ToAccountID == nil {
			return ErrMissingDestination
		}
	case TransactionTypePayment:
		if t.FromAccountID == nil {
			return ErrMissingSource
		}
		// Destination may be external; then bill/third-party metadata
		// stands in for the account reference.
		if t.ToAccountID == nil && len(t.Metadata) == 0 {
			return ErrMissingDestination
		}
	case TransactionTypeFee, TransactionTypeInterest, TransactionTypeRefund:
		if t.FromAccountID == nil && t.ToAccountID == nil {
			return ErrMissingSource
		}
	}

	if t.FromAccountID != nil && t.ToAccountID != nil && *t.FromAccountID == *t.ToAccountID && t.Type != TransactionTypeReversal {
		return ErrSameAccount
	}

	return nil
}

// Transition applies the status state machine, rejecting illegal moves.
func (t *Transaction) Transition(next TransactionStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrIllegalTransition
	}
	t.Status = next
	return nil
}

// DebitTotal is the full amount removed from the source account: principal
// plus fees.
func (t *Transaction) DebitTotal() decimal.Decimal {
	return t.Amount.Add(t.Fees.TotalFees)
}

// Participants returns the account IDs referenced by this entry.
func (t *Transaction) Participants() []string {
	var ids []string
	if t.FromAccountID != nil {
		ids = append(ids, *t.FromAccountID)
	}
	if t.ToAccountID != nil && (t.FromAccountID == nil || *t.ToAccountID != *t.FromAccountID) {
		ids = append(ids, *t.ToAccountID)
	}
	return ids
}
