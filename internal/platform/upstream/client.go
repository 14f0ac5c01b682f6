package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/officehub/backend/internal/domain/errors"
	"github.com/officehub/backend/internal/domain/ledger"
)

// Client is the REST client for the office API, the record of truth for
// every dashboard entity. It attaches the caller's bearer token to each
// request and applies the employee-role owner scope where a resource
// declares one.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new office API client
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// List fetches a resource's full collection, scoped to the caller.
func (c *Client) List(ctx context.Context, res Resource) ([]Record, error) {
	query := url.Values{}
	if err := applyScope(ctx, res, query); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, res.Path, query, nil)
	if err != nil {
		return nil, err
	}
	records, _, err := decodeRecords(body)
	if err != nil {
		return nil, errors.NewInternalError("failed to decode "+res.Name+" list", err)
	}
	return records, nil
}

// ListPage fetches one server-side page of a resource that paginates
// upstream. The returned total is the upstream's collection total.
func (c *Client) ListPage(ctx context.Context, res Resource, pageNo, pageSize int, searchTerm string) ([]Record, int, error) {
	query := url.Values{}
	if err := applyScope(ctx, res, query); err != nil {
		return nil, 0, err
	}
	query.Set("page", strconv.Itoa(pageNo))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if searchTerm != "" {
		query.Set("search", searchTerm)
	}

	body, err := c.do(ctx, http.MethodGet, res.Path, query, nil)
	if err != nil {
		return nil, 0, err
	}
	records, total, err := decodeRecords(body)
	if err != nil {
		return nil, 0, errors.NewInternalError("failed to decode "+res.Name+" page", err)
	}
	return records, total, nil
}

// Create persists a new record and returns the upstream's message and, if
// provided, the created record. The idempotency key travels as a header so
// a double-submitted form cannot create two records.
func (c *Client) Create(ctx context.Context, res Resource, payload interface{}, idempotencyKey string) (Record, string, error) {
	if _, err := scopeFor(ctx, res); err != nil {
		return nil, "", err
	}
	return c.mutate(ctx, http.MethodPost, res.Path, payload, idempotencyKey)
}

// Update replaces an existing record.
func (c *Client) Update(ctx context.Context, res Resource, id string, payload interface{}, idempotencyKey string) (Record, string, error) {
	if _, err := scopeFor(ctx, res); err != nil {
		return nil, "", err
	}
	return c.mutate(ctx, http.MethodPut, res.Path+"/"+url.PathEscape(id), payload, idempotencyKey)
}

// Delete removes a record: a hard DELETE for most resources, a status-flip
// PATCH for resources that soft-delete.
func (c *Client) Delete(ctx context.Context, res Resource, id string) (string, error) {
	if _, err := scopeFor(ctx, res); err != nil {
		return "", err
	}
	path := res.Path + "/" + url.PathEscape(id)
	if res.SoftDelete {
		_, msg, err := c.mutate(ctx, http.MethodPatch, path, map[string]string{"status": "inactive"}, "")
		return msg, err
	}
	_, msg, err := c.mutate(ctx, http.MethodDelete, path, nil, "")
	return msg, err
}

// AccountEntries implements ledger.Source against the office API's
// account ledger endpoints.
func (c *Client) AccountEntries(ctx context.Context, kind ledger.AccountKind, accountID string) ([]ledger.Entry, error) {
	path := fmt.Sprintf("/accounts/%ss/%s/ledger", kind, url.PathEscape(accountID))
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	raw, _, err := decodeList(body)
	if err != nil {
		return nil, errors.NewInternalError("failed to decode ledger entries", err)
	}
	entries := make([]ledger.Entry, 0, len(raw))
	for _, r := range raw {
		var e ledger.Entry
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, errors.NewInternalError("failed to decode ledger entry", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, payload interface{}, idempotencyKey string) (Record, string, error) {
	body, err := c.doWithHeaders(ctx, method, path, nil, payload, idempotencyKey)
	if err != nil {
		return nil, "", err
	}

	var resp mutationResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			// some endpoints return the bare record
			var rec Record
			if err2 := json.Unmarshal(body, &rec); err2 == nil {
				return rec, "", nil
			}
			return nil, "", errors.NewInternalError("failed to decode upstream response", err)
		}
	}
	return resp.Data, resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	return c.doWithHeaders(ctx, method, path, query, payload, "")
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, query url.Values, payload interface{}, idempotencyKey string) ([]byte, error) {
	scope, ok := ScopeFrom(ctx)
	if !ok || scope.Token == "" {
		return nil, errors.NewAuthenticationError("no credentials for upstream call")
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewInternalError("failed to encode request payload", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.NewInternalError("failed to build upstream request", err)
	}
	req.Header.Set("Authorization", "Bearer "+scope.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewUpstreamError("", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamMessage(body)
		c.logger.Warn("upstream request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", msg)
		return nil, errors.NewUpstreamError(msg, resp.StatusCode, nil)
	}
	return body, nil
}

// applyScope adds the employee-role owner restriction to a list query.
func applyScope(ctx context.Context, res Resource, query url.Values) error {
	scope, err := scopeFor(ctx, res)
	if err != nil {
		return err
	}
	if !scope.IsAdmin() && res.OwnerField != "" {
		query.Set(res.OwnerField, scope.EmployeeID)
	}
	return nil
}

// scopeFor returns the caller's scope. Employee access to an admin-only
// collection is rejected here so reads and writes are gated alike.
func scopeFor(ctx context.Context, res Resource) (Scope, error) {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return Scope{}, errors.NewAuthenticationError("no credentials for upstream call")
	}
	if res.AdminOnly && !scope.IsAdmin() {
		return Scope{}, errors.NewAuthorizationError("this page requires the admin role")
	}
	return scope, nil
}

var _ ledger.Source = (*Client)(nil)
