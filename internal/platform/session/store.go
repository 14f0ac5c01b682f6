package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session holds no state under the
// requested key, or the state has expired.
var ErrNotFound = errors.New("session state not found")

// Store persists per-session draft state: quotation carts and per-page
// table/modal view state. State is scoped to a session ID and survives
// page reloads but not the session's TTL. Values are JSON-serializable.
type Store interface {
	// Get decodes the state stored under (sessionID, key) into dest.
	Get(ctx context.Context, sessionID, key string, dest interface{}) error

	// Put stores value under (sessionID, key) with the given TTL,
	// replacing any previous state.
	Put(ctx context.Context, sessionID, key string, value interface{}, ttl time.Duration) error

	// Delete removes the state under (sessionID, key). Deleting absent
	// state is not an error.
	Delete(ctx context.Context, sessionID, key string) error

	// Keys lists the state keys a session currently holds.
	Keys(ctx context.Context, sessionID string) ([]string, error)
}
