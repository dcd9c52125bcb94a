package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
)

// AccountResponse represents an account in API responses. The account
// number is masked; the full number never leaves the service.
type AccountResponse struct {
	ID             string          `json:"id"`
	AccountNumber  string          `json:"account_number"`
	UserID         string          `json:"user_id"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	Status         string          `json:"status"`
	DailyLimit     decimal.Decimal `json:"daily_limit"`
	MonthlyLimit   decimal.Decimal `json:"monthly_limit"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		AccountNumber:  a.MaskedNumber(),
		UserID:         a.UserID,
		Type:           string(a.Type),
		Title:          a.Title,
		Currency:       a.Currency,
		Balance:        a.Balance,
		Status:         string(a.Status),
		DailyLimit:     a.DailyLimit,
		MonthlyLimit:   a.MonthlyLimit,
		MinimumBalance: a.MinimumBalance,
		InterestRate:   a.InterestRate,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// FeesResponse represents the fee breakdown on a transaction.
type FeesResponse struct {
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	ProcessingFee  decimal.Decimal `json:"processing_fee"`
	OtherCharges   decimal.Decimal `json:"other_charges"`
	TotalFees      decimal.Decimal `json:"total_fees"`
}

// TransactionResponse represents a ledger entry in API responses.
// Direction is present only on history reads, where there is an observing
// account to classify against.
type TransactionResponse struct {
	ID                string           `json:"id"`
	Reference         string           `json:"reference"`
	Type              string           `json:"type"`
	Subtype           string           `json:"subtype,omitempty"`
	Status            string           `json:"status"`
	Channel           string           `json:"channel"`
	Amount            decimal.Decimal  `json:"amount"`
	Currency          string           `json:"currency"`
	Description       string           `json:"description,omitempty"`
	FromAccountID     *string          `json:"from_account_id,omitempty"`
	ToAccountID       *string          `json:"to_account_id,omitempty"`
	FromBalanceBefore *decimal.Decimal `json:"from_balance_before,omitempty"`
	FromBalanceAfter  *decimal.Decimal `json:"from_balance_after,omitempty"`
	ToBalanceBefore   *decimal.Decimal `json:"to_balance_before,omitempty"`
	ToBalanceAfter    *decimal.Decimal `json:"to_balance_after,omitempty"`
	Fees              FeesResponse     `json:"fees"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
	Flagged           bool             `json:"flagged"`
	FlagReason        string           `json:"flag_reason,omitempty"`
	Direction         string           `json:"direction,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                t.ID,
		Reference:         t.Reference,
		Type:              string(t.Type),
		Subtype:           t.Subtype,
		Status:            string(t.Status),
		Channel:           string(t.Channel),
		Amount:            t.Amount,
		Currency:          t.Currency,
		Description:       t.Description,
		FromAccountID:     t.FromAccountID,
		ToAccountID:       t.ToAccountID,
		FromBalanceBefore: t.FromBalanceBefore,
		FromBalanceAfter:  t.FromBalanceAfter,
		ToBalanceBefore:   t.ToBalanceBefore,
		ToBalanceAfter:    t.ToBalanceAfter,
		Fees: FeesResponse{
			TransactionFee: t.Fees.TransactionFee,
			ProcessingFee:  t.Fees.ProcessingFee,
			OtherCharges:   t.Fees.OtherCharges,
			TotalFees:      t.Fees.TotalFees,
		},
		Metadata:    t.Metadata,
		Flagged:     t.Flagged,
		FlagReason:  t.FlagReason,
		CreatedAt:   t.CreatedAt,
		ProcessedAt: t.ProcessedAt,
	}
}

// HistoryFromEntries converts classified history entries to responses.
func HistoryFromEntries(entries []usecase.HistoryEntry) []*TransactionResponse {
	result := make([]*TransactionResponse, len(entries))
	for i, e := range entries {
		resp := TransactionFromDomain(e.Transaction)
		resp.Direction = string(e.Direction)
		result[i] = resp
	}
	return result
}

// TypeTotalResponse is one row of a monthly summary.
type TypeTotalResponse struct {
	Type  string          `json:"type"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
	Fees  decimal.Decimal `json:"fees"`
}

// MonthlySummaryResponse represents a monthly summary in API responses.
type MonthlySummaryResponse struct {
	AccountID string              `json:"account_id"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Totals    []TypeTotalResponse `json:"totals"`
}

// MonthlySummaryFromResult converts a summary result to a response.
func MonthlySummaryFromResult(s *usecase.MonthlySummaryResult) *MonthlySummaryResponse {
	totals := make([]TypeTotalResponse, len(s.Totals))
	for i, t := range s.Totals {
		totals[i] = TypeTotalResponse{
			Type:  string(t.Type),
			Count: t.Count,
			Total: t.Total,
			Fees:  t.Fees,
		}
	}
	return &MonthlySummaryResponse{
		AccountID: s.AccountID,
		Year:      s.Year,
		Month:     int(s.Month),
		Totals:    totals,
	}
}

// ConservationResponse represents the money-conservation check result.
type ConservationResponse struct {
	Consistent     bool            `json:"consistent"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Expected       decimal.Decimal `json:"expected_balance"`
}

// ConservationFromResult converts a conservation result to a response.
func ConservationFromResult(r *usecase.ConservationResult) *ConservationResponse {
	return &ConservationResponse{
		Consistent:     r.Consistent,
		TotalBalance:   r.TotalBalance,
		TotalFees:      r.TotalFees,
		TotalDeposited: r.TotalDeposited,
		TotalWithdrawn: r.TotalWithdrawn,
		Expected:       r.Expected,
	}
}

// ErrorDetails carries structured detail for precondition failures.
type ErrorDetails struct {
	Window    string           `json:"window,omitempty"`
	Used      *decimal.Decimal `json:"used,omitempty"`
	Limit     *decimal.Decimal `json:"limit,omitempty"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Minimum   *decimal.Decimal `json:"minimum_balance,omitempty"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
	ExceedsBy *decimal.Decimal `json:"exceeds_by,omitempty"`
	ShortBy   *decimal.Decimal `json:"short_by,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message,omitempty"`
	Details *ErrorDetails `json:"details,omitempty"`
}
