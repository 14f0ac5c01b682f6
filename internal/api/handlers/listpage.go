package handlers

import (
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/common/utils"
	"github.com/officehub/backend/internal/domain/errors"
	"github.com/officehub/backend/internal/domain/listview"
	"github.com/officehub/backend/internal/platform/events"
	"github.com/officehub/backend/internal/platform/session"
	"github.com/officehub/backend/internal/platform/upstream"
)

// PageHandler serves the dashboard's table pages: fetching a page's
// records with the caller's table state applied, mutating that state,
// driving the page's modal, and proxying record mutations upstream.
type PageHandler struct {
	client    *upstream.Client
	store     session.Store
	publisher events.Publisher
	ttl       time.Duration
	logger    *slog.Logger

	newKey func() string
}

func NewPageHandler(client *upstream.Client, store session.Store, publisher events.Publisher, ttl time.Duration, logger *slog.Logger) *PageHandler {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return &PageHandler{
		client:    client,
		store:     store,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger,
		newKey: func() string {
			return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		},
	}
}

// Register wires the page routes onto the mux.
func (h *PageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /pages/{resource}", h.GetPage)
	mux.HandleFunc("POST /pages/{resource}/state", h.UpdateState)
	mux.HandleFunc("POST /pages/{resource}/modal", h.ToggleModal)
	mux.HandleFunc("POST /pages/{resource}/records", h.CreateRecord)
	mux.HandleFunc("PUT /pages/{resource}/records/{id}", h.UpdateRecord)
	mux.HandleFunc("DELETE /pages/{resource}/records/{id}", h.DeleteRecord)
	mux.HandleFunc("DELETE /session", h.ResetSession)
}

func tableKey(resource string) string { return "table:" + resource }
func modalKey(resource string) string { return "modal:" + resource }

// pageView is the full render state of one table page.
type pageView struct {
	Records []upstream.Record   `json:"records"`
	State   listview.TableState `json:"state"`
	Modal   listview.ModalState `json:"modal"`
}

// GetPage returns the visible slice of a page's records under the
// session's table state, along with that state and the page's modal.
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	res, err := resourceByName(r.PathValue("resource"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	sid := sessionID(r)
	state := h.loadTableState(r, res.Name)

	var page listview.Page[upstream.Record]
	if res.ServerPaged {
		records, total, listErr := h.client.ListPage(r.Context(), res, state.PageNo, state.PageSize, state.SearchTerm)
		if listErr != nil {
			response.WriteError(w, listErr, requestID)
			return
		}
		page = serverPage(records, total, state)
	} else {
		records, listErr := h.client.List(r.Context(), res)
		if listErr != nil {
			response.WriteError(w, listErr, requestID)
			return
		}
		page = listview.Run(records, state.SearchTerm, state.PageNo, state.PageSize, func(rec upstream.Record) string {
			return rec.SearchText(res.SearchFields)
		})
	}

	// a stale page number was clamped; persist the repair
	if page.PageNo != state.PageNo {
		state.PageNo = page.PageNo
		h.saveTableState(r, sid, res.Name, state)
	}

	var modal listview.ModalState
	if err := h.store.Get(r.Context(), sid, modalKey(res.Name), &modal); err != nil && !goerrors.Is(err, session.ErrNotFound) {
		response.WriteError(w, errors.NewInternalError("failed to load modal state", err), requestID)
		return
	}

	visible := page.Visible
	if visible == nil {
		visible = []upstream.Record{}
	}
	response.SuccessWithPagination(w, http.StatusOK,
		pageView{Records: visible, State: state, Modal: modal},
		&response.Pagination{
			Total:      page.Total,
			Page:       page.PageNo,
			PerPage:    state.PageSize,
			TotalPages: page.Pages,
		},
		requestID)
}

// stateRequest mutates one aspect of the table state per call.
type stateRequest struct {
	Action   string `json:"action"`
	Term     string `json:"term"`
	PageSize int    `json:"pageSize"`
	Page     int    `json:"page"`
}

// UpdateState applies a search, page-size or page-turn action to the
// session's table state and returns the updated state.
func (h *PageHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	res, err := resourceByName(r.PathValue("resource"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	var req stateRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	sid := sessionID(r)
	state := h.loadTableState(r, res.Name)

	switch req.Action {
	case "search":
		state.SetSearchTerm(req.Term)
	case "pageSize":
		if err := state.SetPageSize(req.PageSize); err != nil {
			response.WriteError(w, err, requestID)
			return
		}
	case "next":
		pages, countErr := h.totalPages(r, res, state)
		if countErr != nil {
			response.WriteError(w, countErr, requestID)
			return
		}
		state.NextPage(pages)
	case "prev":
		state.PrevPage()
	case "goto":
		state.PageNo = req.Page
		state.Normalize()
	default:
		response.WriteError(w, errors.NewInvalidInputError("unknown state action: "+req.Action, nil), requestID)
		return
	}

	if err := h.saveTableState(r, sid, res.Name, state); err != nil {
		response.WriteError(w, err, requestID)
		return
	}
	response.OK(w, state, requestID)
}

// modalRequest asks for a modal transition on a page.
type modalRequest struct {
	Mode     listview.ModalMode `json:"mode"`
	RecordID string             `json:"recordId"`
	Record   json.RawMessage    `json:"record"`
}

// ToggleModal switches the page's modal and returns the resulting state.
func (h *PageHandler) ToggleModal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	res, err := resourceByName(r.PathValue("resource"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	var req modalRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	sid := sessionID(r)
	var modal listview.ModalState
	if err := h.store.Get(r.Context(), sid, modalKey(res.Name), &modal); err != nil && !goerrors.Is(err, session.ErrNotFound) {
		response.WriteError(w, errors.NewInternalError("failed to load modal state", err), requestID)
		return
	}

	if err := modal.Toggle(req.Mode, req.RecordID, req.Record); err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	if err := h.store.Put(r.Context(), sid, modalKey(res.Name), modal, h.ttl); err != nil {
		response.WriteError(w, errors.NewInternalError("failed to save modal state", err), requestID)
		return
	}
	response.OK(w, modal, requestID)
}

// CreateRecord proxies a create to the office API and closes the page's
// modal on success.
func (h *PageHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, events.ActionCreate)
}

// UpdateRecord proxies an update to the office API.
func (h *PageHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, events.ActionUpdate)
}

// DeleteRecord proxies a delete to the office API.
func (h *PageHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	h.mutateRecord(w, r, events.ActionDelete)
}

func (h *PageHandler) mutateRecord(w http.ResponseWriter, r *http.Request, action string) {
	requestID := middleware.GetRequestID(r.Context())

	res, err := resourceByName(r.PathValue("resource"))
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	var key string
	if action == events.ActionCreate || action == events.ActionUpdate {
		if key, err = h.idempotencyKey(r); err != nil {
			response.WriteError(w, err, requestID)
			return
		}
	}

	var (
		record   upstream.Record
		message  string
		recordID = r.PathValue("id")
	)
	switch action {
	case events.ActionCreate:
		var payload map[string]interface{}
		if err = decodeBody(r, &payload); err == nil {
			record, message, err = h.client.Create(r.Context(), res, payload, key)
		}
	case events.ActionUpdate:
		var payload map[string]interface{}
		if err = decodeBody(r, &payload); err == nil {
			record, message, err = h.client.Update(r.Context(), res, recordID, payload, key)
		}
	case events.ActionDelete:
		message, err = h.client.Delete(r.Context(), res, recordID)
	}
	if err != nil {
		response.WriteError(w, err, requestID)
		return
	}

	h.closeModal(r, res.Name)
	h.publishMutation(r, res.Name, action, recordID, record)

	status := http.StatusOK
	if action == events.ActionCreate {
		status = http.StatusCreated
	}
	response.SuccessWithMessage(w, status, record, message, requestID)
}

// idempotencyKey returns the caller-supplied Idempotency-Key header, or
// mints a fresh ULID when the caller sent none. A malformed key is
// rejected rather than silently replaced, because the caller is relying
// on it for retry dedup.
func (h *PageHandler) idempotencyKey(r *http.Request) (string, error) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return h.newKey(), nil
	}
	if !utils.ULIDRegex.MatchString(key) {
		return "", errors.NewValidationError("Idempotency-Key must be a ULID").WithDetail("Idempotency-Key", key)
	}
	return key, nil
}

// ResetSession drops every piece of per-tab state the session holds:
// table states, modals, and the quotation cart. Sign-out calls this so a
// later sign-in on the same tab starts clean.
func (h *PageHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sid := sessionID(r)
	keys, err := h.store.Keys(r.Context(), sid)
	if err != nil {
		response.WriteError(w, errors.NewInternalError("failed to enumerate session state", err), requestID)
		return
	}
	for _, key := range keys {
		if err := h.store.Delete(r.Context(), sid, key); err != nil {
			response.WriteError(w, errors.NewInternalError("failed to clear session state", err), requestID)
			return
		}
	}
	response.NoContent(w)
}

// closeModal clears the page's modal after a successful mutation. The
// next GetPage re-fetches, so the table reflects the change without any
// client-side cache to invalidate.
func (h *PageHandler) closeModal(r *http.Request, resource string) {
	if err := h.store.Delete(r.Context(), sessionID(r), modalKey(resource)); err != nil {
		h.logger.Warn("failed to clear modal state after mutation",
			"resource", resource,
			"error", err)
	}
}

func (h *PageHandler) publishMutation(r *http.Request, resource, action, recordID string, record upstream.Record) {
	if recordID == "" && record != nil {
		recordID = record.ID()
	}
	event := events.MutationEvent{
		ID:         middleware.GetRequestID(r.Context()),
		Resource:   resource,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		event.ActorEmail = claims.Email
		event.ActorRole = claims.Role
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		h.logger.Warn("failed to publish mutation event",
			"resource", resource,
			"action", action,
			"error", err)
	}
}

func (h *PageHandler) loadTableState(r *http.Request, resource string) listview.TableState {
	var state listview.TableState
	err := h.store.Get(r.Context(), sessionID(r), tableKey(resource), &state)
	if err != nil {
		if !goerrors.Is(err, session.ErrNotFound) {
			h.logger.Warn("failed to load table state, using defaults",
				"resource", resource,
				"error", err)
		}
		return listview.NewTableState()
	}
	state.Normalize()
	return state
}

func (h *PageHandler) saveTableState(r *http.Request, sid, resource string, state listview.TableState) error {
	if err := h.store.Put(r.Context(), sid, tableKey(resource), state, h.ttl); err != nil {
		return errors.NewInternalError("failed to save table state", err)
	}
	return nil
}

// totalPages counts the pages the current filter yields, for clamping a
// page-forward action.
func (h *PageHandler) totalPages(r *http.Request, res upstream.Resource, state listview.TableState) (int, error) {
	if res.ServerPaged {
		_, total, err := h.client.ListPage(r.Context(), res, state.PageNo, state.PageSize, state.SearchTerm)
		if err != nil {
			return 0, err
		}
		return pagesFor(total, state.PageSize), nil
	}

	records, err := h.client.List(r.Context(), res)
	if err != nil {
		return 0, err
	}
	filtered := listview.Filter(records, state.SearchTerm, func(rec upstream.Record) string {
		return rec.SearchText(res.SearchFields)
	})
	return pagesFor(len(filtered), state.PageSize), nil
}

func pagesFor(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = listview.DefaultPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// serverPage wraps an upstream-paginated slice in the same page shape the
// in-memory pipeline produces.
func serverPage(records []upstream.Record, total int, state listview.TableState) listview.Page[upstream.Record] {
	pages := pagesFor(total, state.PageSize)
	pageNo := state.PageNo
	if pageNo > pages {
		pageNo = pages
	}
	if pageNo < 1 {
		pageNo = 1
	}
	start := (pageNo - 1) * state.PageSize
	if start > total {
		start = total
	}
	end := start + len(records)
	return listview.Page[upstream.Record]{
		Visible: records,
		Start:   start,
		End:     end,
		Total:   total,
		PageNo:  pageNo,
		Pages:   pages,
	}
}
