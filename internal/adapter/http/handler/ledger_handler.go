package handler

import (
	"net/http"

	"github.com/corebank/ledger/internal/adapter/http/dto"
	"github.com/corebank/ledger/internal/usecase"
)

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Conservation runs the system-wide money-conservation check.
func (h *LedgerHandler) Conservation(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerUC.CheckConservation(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConservationFromResult(result))
}
