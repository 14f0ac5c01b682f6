package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officehub/backend/internal/platform/session"
)

type draft struct {
	Items []string `json:"items"`
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Put(ctx, "sess-1", "cart", draft{Items: []string{"a", "b"}}, time.Minute))

	var got draft
	require.NoError(t, s.Get(ctx, "sess-1", "cart", &got))
	assert.Equal(t, []string{"a", "b"}, got.Items)

	keys, err := s.Keys(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cart"}, keys)
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var got draft
	err := s.Get(ctx, "sess-1", "cart", &got)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// deleting absent state is not an error
	assert.NoError(t, s.Delete(ctx, "sess-1", "cart"))
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "sess-1", "cart", draft{}, time.Minute))

	now = now.Add(2 * time.Minute)

	var got draft
	err := s.Get(ctx, "sess-1", "cart", &got)
	assert.ErrorIs(t, err, session.ErrNotFound)

	keys, err := s.Keys(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Put(ctx, "sess-1", "cart", draft{Items: []string{"x"}}, 0))

	var got draft
	err := s.Get(ctx, "sess-2", "cart", &got)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Put(ctx, "sess-1", "cart", draft{Items: []string{"old"}}, 0))
	require.NoError(t, s.Put(ctx, "sess-1", "cart", draft{Items: []string{"new"}}, 0))

	var got draft
	require.NoError(t, s.Get(ctx, "sess-1", "cart", &got))
	assert.Equal(t, []string{"new"}, got.Items)
}
