package handlers

import (
	"net/http"

	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/domain/ledger"
)

// LedgerHandler serves account statements with running balances.
type LedgerHandler struct {
	service *ledger.Service
}

func NewLedgerHandler(service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

func (h *LedgerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /accounts/{kind}/{id}/statement", h.GetStatement)
}

// GetStatement returns an account's entries annotated with running
// balances, ordered by payment date.
func (h *LedgerHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	kind := ledger.AccountKind(r.PathValue("kind"))
	statement, err := h.service.Statement(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, statement, requestID)
}
