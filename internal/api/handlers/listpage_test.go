package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/common/utils"
	"github.com/officehub/backend/internal/domain/listview"
	"github.com/officehub/backend/internal/platform/events"
	"github.com/officehub/backend/internal/platform/session/memory"
	"github.com/officehub/backend/internal/platform/upstream"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.MutationEvent
}

func (p *capturePublisher) Publish(_ context.Context, event events.MutationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type pageFixture struct {
	mux       *http.ServeMux
	publisher *capturePublisher
	upstream  *httptest.Server
}

func newPageFixture(t *testing.T, office http.Handler) *pageFixture {
	t.Helper()
	server := httptest.NewServer(office)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := upstream.NewClient(server.URL, time.Second, logger)
	publisher := &capturePublisher{}
	handler := NewPageHandler(client, memory.NewStore(), publisher, time.Hour, logger)

	mux := http.NewServeMux()
	handler.Register(mux)
	return &pageFixture{mux: mux, publisher: publisher, upstream: server}
}

func (f *pageFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, path, body, upstream.Scope{Token: "token-1", Role: "admin"}, nil)
}

func (f *pageFixture) do(t *testing.T, method, path string, body interface{}, scope upstream.Scope, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(SessionIDHeader, "tab-1")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	req = req.WithContext(upstream.WithScope(req.Context(), scope))

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

type pageEnvelope struct {
	Success    bool                 `json:"success"`
	Data       json.RawMessage      `json:"data"`
	Message    string               `json:"message"`
	Pagination *response.Pagination `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) pageEnvelope {
	t.Helper()
	var env pageEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func customersUpstream(n int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/customers" {
			http.NotFound(w, r)
			return
		}
		records := make([]map[string]interface{}, 0, n)
		for i := 1; i <= n; i++ {
			records = append(records, map[string]interface{}{
				"id":   fmt.Sprintf("c%d", i),
				"name": fmt.Sprintf("Customer %d", i),
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": records})
	})
}

func TestGetPage(t *testing.T) {
	t.Run("returns the first page with defaults", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(23))

		rec := f.request(t, http.MethodGet, "/pages/customers", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, 23, env.Pagination.Total)
		assert.Equal(t, 1, env.Pagination.Page)
		assert.Equal(t, 10, env.Pagination.PerPage)
		assert.Equal(t, 3, env.Pagination.TotalPages)

		var view struct {
			Records []upstream.Record   `json:"records"`
			State   listview.TableState `json:"state"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &view))
		assert.Len(t, view.Records, 10)
		assert.Equal(t, "c1", view.Records[0].ID())
	})

	t.Run("applies the session's search term", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(23))

		rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]string{
			"action": "search", "term": "customer 2",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.request(t, http.MethodGet, "/pages/customers", nil)
		env := decodeEnvelope(t, rec)
		// Customer 2, 20, 21, 22, 23
		assert.Equal(t, 5, env.Pagination.Total)
	})

	t.Run("unknown page is not found", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(0))

		rec := f.request(t, http.MethodGet, "/pages/invoices", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upstream failure surfaces as an error envelope", func(t *testing.T) {
		f := newPageFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"office API down"}`))
		}))

		rec := f.request(t, http.MethodGet, "/pages/customers", nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var env struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.Equal(t, "UPSTREAM_ERROR", env.Error)
	})
}

func TestUpdateState(t *testing.T) {
	t.Run("page turns persist across requests", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(23))

		rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]string{"action": "next"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.request(t, http.MethodGet, "/pages/customers", nil)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, 2, env.Pagination.Page)
	})

	t.Run("next clamps at the last page", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(15))

		for i := 0; i < 5; i++ {
			rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]string{"action": "next"})
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := f.request(t, http.MethodGet, "/pages/customers", nil)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, 2, env.Pagination.Page)
	})

	t.Run("rejects an unknown page size", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(5))

		rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]interface{}{
			"action": "pageSize", "pageSize": 13,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(5))

		rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]string{"action": "sort"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestToggleModal(t *testing.T) {
	t.Run("opens and toggles closed", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(5))

		rec := f.request(t, http.MethodPost, "/pages/customers/modal", map[string]string{
			"mode": "EDIT", "recordId": "c1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		var modal listview.ModalState
		require.NoError(t, json.Unmarshal(env.Data, &modal))
		assert.Equal(t, listview.ModalEdit, modal.Mode)
		assert.Equal(t, "c1", modal.RecordID)

		rec = f.request(t, http.MethodPost, "/pages/customers/modal", map[string]string{
			"mode": "EDIT", "recordId": "c1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		env = decodeEnvelope(t, rec)
		require.NoError(t, json.Unmarshal(env.Data, &modal))
		assert.False(t, modal.IsOpen())
	})

	t.Run("edit without a record id is rejected", func(t *testing.T) {
		f := newPageFixture(t, customersUpstream(5))

		rec := f.request(t, http.MethodPost, "/pages/customers/modal", map[string]string{"mode": "EDIT"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMutateRecord(t *testing.T) {
	office := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/customers":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"customer created","data":{"id":"c9","name":"New Co"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/customers/c1":
			w.Write([]byte(`{"message":"customer removed"}`))
		default:
			customersUpstream(3).ServeHTTP(w, r)
		}
	})

	t.Run("create proxies upstream and publishes an event", func(t *testing.T) {
		f := newPageFixture(t, office)

		rec := f.request(t, http.MethodPost, "/pages/customers/records", map[string]string{"name": "New Co"})

		require.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "customer created", env.Message)

		require.Len(t, f.publisher.events, 1)
		event := f.publisher.events[0]
		assert.Equal(t, "customers", event.Resource)
		assert.Equal(t, events.ActionCreate, event.Action)
		assert.Equal(t, "c9", event.RecordID)
	})

	t.Run("employee cannot mutate an admin-only page", func(t *testing.T) {
		f := newPageFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("mutation must not reach the office API: %s %s", r.Method, r.URL.Path)
		}))
		employee := upstream.Scope{Token: "token-2", Role: "employee", EmployeeID: "emp-42"}

		rec := f.do(t, http.MethodPost, "/pages/employees/records", map[string]string{"name": "Mallory"}, employee, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodPut, "/pages/employees/records/e1", map[string]string{"name": "Mallory"}, employee, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodDelete, "/pages/employees/records/e1", nil, employee, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		assert.Empty(t, f.publisher.events)
	})

	t.Run("create mints a fresh idempotency key", func(t *testing.T) {
		var seen string
		f := newPageFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Idempotency-Key")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"customer created","data":{"id":"c9"}}`))
		}))

		rec := f.request(t, http.MethodPost, "/pages/customers/records", map[string]string{"name": "New Co"})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Regexp(t, utils.ULIDRegex, seen)
	})

	t.Run("create forwards a caller-supplied idempotency key", func(t *testing.T) {
		const key = "01HZX5B0C8T3R9K2M4N6P8Q1S3"
		var seen string
		f := newPageFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Idempotency-Key")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"customer created","data":{"id":"c9"}}`))
		}))
		admin := upstream.Scope{Token: "token-1", Role: "admin"}

		rec := f.do(t, http.MethodPost, "/pages/customers/records", map[string]string{"name": "New Co"},
			admin, map[string]string{"Idempotency-Key": key})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, key, seen)
	})

	t.Run("rejects a malformed idempotency key", func(t *testing.T) {
		f := newPageFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("request must not reach the office API: %s %s", r.Method, r.URL.Path)
		}))
		admin := upstream.Scope{Token: "token-1", Role: "admin"}

		rec := f.do(t, http.MethodPost, "/pages/customers/records", map[string]string{"name": "New Co"},
			admin, map[string]string{"Idempotency-Key": "not-a-ulid"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete closes the page modal", func(t *testing.T) {
		f := newPageFixture(t, office)

		rec := f.request(t, http.MethodPost, "/pages/customers/modal", map[string]string{
			"mode": "DELETE", "recordId": "c1",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.request(t, http.MethodDelete, "/pages/customers/records/c1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.request(t, http.MethodGet, "/pages/customers", nil)
		env := decodeEnvelope(t, rec)
		var view struct {
			Modal listview.ModalState `json:"modal"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &view))
		assert.False(t, view.Modal.IsOpen())
	})
}

func TestResetSession(t *testing.T) {
	f := newPageFixture(t, customersUpstream(23))

	rec := f.request(t, http.MethodPost, "/pages/customers/state", map[string]string{"action": "next"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.request(t, http.MethodPost, "/pages/customers/modal", map[string]string{
		"mode": "EDIT", "recordId": "c1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodDelete, "/session", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.request(t, http.MethodGet, "/pages/customers", nil)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, 1, env.Pagination.Page)
	var view struct {
		Modal listview.ModalState `json:"modal"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.False(t, view.Modal.IsOpen())
}

func TestGetPageServerPaged(t *testing.T) {
	office := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/applicants" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total": 42,
			"data":  []map[string]interface{}{{"id": "a1", "name": "Jane"}},
		})
	})

	f := newPageFixture(t, office)
	rec := f.request(t, http.MethodGet, "/pages/applicants", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, 42, env.Pagination.Total)
	assert.Equal(t, 5, env.Pagination.TotalPages)
}
