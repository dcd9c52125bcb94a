package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corebank/ledger/internal/adapter/http/dto"
	"github.com/corebank/ledger/internal/adapter/http/middleware"
	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
	ledgerUC  *usecase.LedgerUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC *usecase.AccountUseCase, ledgerUC *usecase.LedgerUseCase) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, ledgerUC: ledgerUC}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), principal, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ChangeStatus updates an account's lifecycle status.
func (h *AccountHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.ChangeAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.ChangeStatus(r.Context(), principal, id, domain.AccountStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts, admin only.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), principal, usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// History lists an account's ledger entries, each classified from the
// account's point of view.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	filter := usecase.HistoryFilter{
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := domain.TransactionType(v)
		filter.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.TransactionStatus(v)
		filter.Status = &s
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp", err.Error())
			return
		}
		filter.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp", err.Error())
			return
		}
		filter.To = &t
	}

	entries, err := h.ledgerUC.History(r.Context(), principal, id, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromEntries(entries))
}

// Summary returns an account's monthly aggregation by transaction type.
func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	now := time.Now().UTC()
	year := parseIntQuery(r, "year", now.Year())
	month := parseIntQuery(r, "month", int(now.Month()))

	summary, err := h.ledgerUC.MonthlySummary(r.Context(), principal, id, year, time.Month(month))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthlySummaryFromResult(summary))
}
