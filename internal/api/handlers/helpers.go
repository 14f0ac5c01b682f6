package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/domain/errors"
)

// SessionIDHeader identifies the dashboard tab's draft state. The
// dashboard mints one per tab so drafts do not leak across tabs; absent
// the header, state falls back to the token subject.
const SessionIDHeader = "X-Session-Id"

func sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionIDHeader); id != "" {
		return id
	}
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

func decodeBody(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.NewInvalidInputError("request body is required", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errors.NewInvalidInputError("invalid request body", err)
	}
	return nil
}
