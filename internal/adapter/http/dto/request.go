package dto

import (
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
)

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	UserID         string          `json:"user_id"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Currency       string          `json:"currency"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		UserID:         r.UserID,
		Type:           domain.AccountType(r.Type),
		Title:          r.Title,
		Currency:       r.Currency,
		InitialDeposit: r.InitialDeposit,
	}
}

// ChangeAccountStatusRequest represents an account status change.
type ChangeAccountStatusRequest struct {
	Status string `json:"status"`
}

// CreateTransactionRequest represents a request to move money.
type CreateTransactionRequest struct {
	Type            string          `json:"type"`
	FromAccountID   string          `json:"from_account_id,omitempty"`
	ToAccountID     string          `json:"to_account_id,omitempty"`
	ToAccountNumber string          `json:"to_account_number,omitempty"`
	ToAccountTitle  string          `json:"to_account_title,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Description     string          `json:"description,omitempty"`
	Channel         string          `json:"channel,omitempty"`
	Subtype         string          `json:"subtype,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.ExecuteInput {
	return usecase.ExecuteInput{
		Type:            domain.TransactionType(r.Type),
		FromAccountID:   r.FromAccountID,
		ToAccountID:     r.ToAccountID,
		ToAccountNumber: r.ToAccountNumber,
		ToAccountTitle:  r.ToAccountTitle,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Description:     r.Description,
		Channel:         domain.Channel(r.Channel),
		Subtype:         r.Subtype,
		Metadata:        r.Metadata,
	}
}

// ReverseTransactionRequest represents an administrative reversal.
type ReverseTransactionRequest struct {
	Description string `json:"description,omitempty"`
}

// FlagTransactionRequest represents an administrative flag change.
type FlagTransactionRequest struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason,omitempty"`
}
