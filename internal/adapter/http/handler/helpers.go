package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/corebank/ledger/internal/adapter/http/dto"
	"github.com/corebank/ledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps a domain error to its HTTP status and attaches
// structured detail for precondition failures so callers can show the
// shortfall without parsing message text.
func writeDomainError(w http.ResponseWriter, err error) {
	resp := dto.ErrorResponse{
		Error:   http.StatusText(mapDomainError(err)),
		Message: err.Error(),
	}

	var insufficientFunds *domain.InsufficientFundsError
	if errors.As(err, &insufficientFunds) {
		resp.Details = &dto.ErrorDetails{
			Balance:   &insufficientFunds.Balance,
			Minimum:   &insufficientFunds.MinimumBalance,
			Requested: &insufficientFunds.Requested,
			ShortBy:   &insufficientFunds.ShortBy,
		}
	}

	var limitExceeded *domain.LimitExceededError
	if errors.As(err, &limitExceeded) {
		resp.Details = &dto.ErrorDetails{
			Window:    string(limitExceeded.Window),
			Used:      &limitExceeded.Used,
			Limit:     &limitExceeded.Limit,
			Requested: &limitExceeded.Requested,
			ExceedsBy: &limitExceeded.ExceedsBy,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mapDomainError(err))
	json.NewEncoder(w).Encode(resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAccountNotActive),
		errors.Is(err, domain.ErrDebitsDisabled),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrCancelNotPending),
		errors.Is(err, domain.ErrInvalidStatusChange),
		errors.Is(err, domain.ErrBalanceNotZero):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrRecipientMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransactionType),
		errors.Is(err, domain.ErrInvalidChannel),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrMissingSource),
		errors.Is(err, domain.ErrMissingDestination),
		errors.Is(err, domain.ErrInvalidAccountTitle),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrMetadataTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCommitFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
