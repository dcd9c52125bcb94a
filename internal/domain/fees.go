package domain

import "github.com/shopspring/decimal"

// DefaultExternalTransferFee is the flat charge applied to transfers
// leaving the institution, used when configuration does not override it.
var DefaultExternalTransferFee = decimal.NewFromInt(25)

type feeKey struct {
	txType  TransactionType
	subtype string
}

// FeeSchedule is a policy table keyed by (type, subtype). New fee rules are
// registered additively instead of branching inside the orchestrator.
type FeeSchedule struct {
	rules map[feeKey]FeeBreakdown
}

// NewFeeSchedule builds the current fee policy: a flat fee for external
// transfers, zero for everything else.
func NewFeeSchedule(externalTransferFee decimal.Decimal) *FeeSchedule {
	s := &FeeSchedule{rules: make(map[feeKey]FeeBreakdown)}
	s.Register(TransactionTypeTransfer, SubtypeExternalTransfer, FeeBreakdown{
		TransactionFee: externalTransferFee,
	})
	return s
}

// Register adds or replaces a fee rule. TotalFees is derived.
func (s *FeeSchedule) Register(t TransactionType, subtype string, fee FeeBreakdown) {
	fee.TotalFees = fee.TransactionFee.Add(fee.ProcessingFee).Add(fee.OtherCharges)
	s.rules[feeKey{txType: t, subtype: subtype}] = fee
}

// Compute returns the fee breakdown for a (type, subtype) pair. Unknown
// pairs are free.
func (s *FeeSchedule) Compute(t TransactionType, subtype string) FeeBreakdown {
	if fee, ok := s.rules[feeKey{txType: t, subtype: subtype}]; ok {
		return fee
	}
	return FeeBreakdown{
		TransactionFee: decimal.Zero,
		ProcessingFee:  decimal.Zero,
		OtherCharges:   decimal.Zero,
		TotalFees:      decimal.Zero,
	}
}
