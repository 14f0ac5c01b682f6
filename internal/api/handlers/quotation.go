package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/domain/quotation"
	"github.com/officehub/backend/internal/platform/events"
	"github.com/officehub/backend/internal/platform/upstream"
)

// QuotationRecorder adapts the office API client to the cart's persist
// step.
type QuotationRecorder struct {
	Client *upstream.Client
}

func (r QuotationRecorder) CreateQuotation(ctx context.Context, payload quotation.SubmitPayload, idempotencyKey string) (string, error) {
	res, err := resourceByName("quotations")
	if err != nil {
		return "", err
	}
	_, message, err := r.Client.Create(ctx, res, payload, idempotencyKey)
	return message, err
}

// QuotationHandler serves the quotation draft cart.
type QuotationHandler struct {
	service   *quotation.Service
	publisher events.Publisher
	logger    *slog.Logger
}

func NewQuotationHandler(service *quotation.Service, publisher events.Publisher, logger *slog.Logger) *QuotationHandler {
	return &QuotationHandler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *QuotationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /quotation/cart", h.GetCart)
	mux.HandleFunc("POST /quotation/cart/lines", h.AddLine)
	mux.HandleFunc("PATCH /quotation/cart/lines/{id}", h.EditLine)
	mux.HandleFunc("POST /quotation/cart/lines/{id}/toggle", h.ToggleEdit)
	mux.HandleFunc("DELETE /quotation/cart/lines/{id}", h.RemoveLine)
	mux.HandleFunc("POST /quotation/submit", h.Submit)
	mux.HandleFunc("POST /quotation/close", h.Close)
}

// GetCart returns the session's draft cart with its totals.
func (h *QuotationHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	cart, err := h.service.Cart(r.Context(), sessionID(r))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, cart.View(), requestID)
}

// AddLine validates and prepends a new cart line.
func (h *QuotationHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var input quotation.AddLineInput
	if err := decodeBody(r, &input); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	cart, err := h.service.AddLine(r.Context(), sessionID(r), input)
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.Created(w, cart.View(), requestID)
}

type editLineRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// EditLine updates one field of a cart line in place.
func (h *QuotationHandler) EditLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req editLineRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	cart, err := h.service.EditLine(r.Context(), sessionID(r), r.PathValue("id"), req.Field, req.Value)
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, cart.View(), requestID)
}

// ToggleEdit flips a cart line between display and edit mode.
func (h *QuotationHandler) ToggleEdit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	cart, err := h.service.ToggleEdit(r.Context(), sessionID(r), r.PathValue("id"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, cart.View(), requestID)
}

// RemoveLine drops one line from the cart.
func (h *QuotationHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	cart, err := h.service.RemoveLine(r.Context(), sessionID(r), r.PathValue("id"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, cart.View(), requestID)
}

type submitRequest struct {
	CustomerID string `json:"customerId"`
	Date       string `json:"date"`
}

// Submit persists the cart as one quotation record and clears the draft.
func (h *QuotationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	message, err := h.service.Submit(r.Context(), sessionID(r), req.CustomerID, req.Date)
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	event := events.MutationEvent{
		ID:         requestID,
		Resource:   "quotations",
		Action:     events.ActionSubmit,
		OccurredAt: time.Now().UTC(),
	}
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		event.ActorEmail = claims.Email
		event.ActorRole = claims.Role
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		h.logger.Warn("failed to publish quotation submit event", "error", err)
	}

	response.SuccessWithMessage(w, http.StatusCreated, nil, message, requestID)
}

// Close discards the draft unconditionally.
func (h *QuotationHandler) Close(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.service.Close(r.Context(), sessionID(r)); err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.NoContent(w)
}
