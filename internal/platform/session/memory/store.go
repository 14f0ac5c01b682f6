package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/officehub/backend/internal/platform/session"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store is an in-memory session.Store used for development and tests.
// Values pass through JSON the same way the real backends serialize them.
type Store struct {
	mu    sync.Mutex
	items map[string]map[string]entry // sessionID -> key -> entry
	now   func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]map[string]entry),
		now:   time.Now,
	}
}

func (s *Store) Get(ctx context.Context, sessionID, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[sessionID]
	if !ok {
		return session.ErrNotFound
	}
	e, ok := sess[key]
	if !ok {
		return session.ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(sess, key)
		return session.ErrNotFound
	}
	return json.Unmarshal(e.data, dest)
}

func (s *Store) Put(ctx context.Context, sessionID, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[sessionID]
	if !ok {
		sess = make(map[string]entry)
		s.items[sessionID] = sess
	}
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	sess[key] = entry{data: data, expiresAt: expires}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[sessionID]; ok {
		delete(sess, key)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	now := s.now()
	keys := make([]string, 0, len(sess))
	for k, e := range sess {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

var _ session.Store = (*Store)(nil)
