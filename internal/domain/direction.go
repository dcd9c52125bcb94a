package domain

// Direction is the signed interpretation of a ledger entry from one
// account's point of view.
type Direction string

const (
	DirectionDebit          Direction = "debit"
	DirectionCredit         Direction = "credit"
	DirectionExternalDebit  Direction = "external_debit"
	DirectionExternalCredit Direction = "external_credit"
	DirectionTransferSelf   Direction = "transfer_self"
	DirectionReversalSelf   Direction = "reversal_self"
	DirectionUnknown        Direction = "unknown"
)

// ClassifyDirection computes how the observing account experienced the
// transaction. The precedence ordering matters: the account-reference rules
// disambiguate cases where the type-based defaults would mislead (a
// reversal of a debit is a credit to the affected account).
func ClassifyDirection(t *Transaction, observingAccountID string) Direction {
	isFrom := t.FromAccountID != nil && *t.FromAccountID == observingAccountID
	isTo := t.ToAccountID != nil && *t.ToAccountID == observingAccountID

	switch {
	case isFrom && isTo:
		if t.Type == TransactionTypeReversal {
			return DirectionReversalSelf
		}
		return DirectionTransferSelf
	case isFrom:
		if t.Subtype == SubtypeExternalTransfer {
			return DirectionExternalDebit
		}
		return DirectionDebit
	case isTo:
		if t.Subtype == SubtypeExternalTransfer {
			return DirectionExternalCredit
		}
		return DirectionCredit
	}

	// Observer is not referenced directly; fall back to the type table.
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeInterest, TransactionTypeRefund:
		return DirectionCredit
	case TransactionTypeWithdrawal, TransactionTypeFee, TransactionTypePayment:
		return DirectionDebit
	case TransactionTypeTransfer, TransactionTypeReversal:
		return DirectionUnknown
	default:
		return DirectionUnknown
	}
}
