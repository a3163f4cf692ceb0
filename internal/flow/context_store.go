package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

type expectationEntry struct {
	kind  models.ExpectationKind
	setAt time.Time
}

// MemoryContextStore is a ContextStore backed by a sync.Map keyed by user id, so users
// never contend with each other.
type MemoryContextStore struct {
	entries sync.Map // int64 -> expectationEntry
	ttl     time.Duration
	now     func() time.Time
}

// Compile-time check that MemoryContextStore implements ContextStore.
var _ ContextStore = (*MemoryContextStore)(nil)

// ContextStoreOption configures a MemoryContextStore.
type ContextStoreOption func(*MemoryContextStore)

// WithExpectationTTL makes expectations expire after ttl. Zero disables expiry.
func WithExpectationTTL(ttl time.Duration) ContextStoreOption {
	return func(s *MemoryContextStore) { s.ttl = ttl }
}

// withClock overrides the time source; used by tests.
func withClock(now func() time.Time) ContextStoreOption {
	return func(s *MemoryContextStore) { s.now = now }
}

// NewMemoryContextStore creates an empty context store.
func NewMemoryContextStore(opts ...ContextStoreOption) *MemoryContextStore {
	s := &MemoryContextStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set replaces the user's expectation; ExpectationNone clears it.
func (s *MemoryContextStore) Set(userID int64, kind models.ExpectationKind) {
	if kind == models.ExpectationNone {
		s.Clear(userID)
		return
	}
	s.entries.Store(userID, expectationEntry{kind: kind, setAt: s.now()})
	slog.Debug("ContextStore Set", "userID", userID, "kind", kind)
}

// Get returns the user's current expectation, or ExpectationNone when unset or expired.
func (s *MemoryContextStore) Get(userID int64) models.ExpectationKind {
	v, ok := s.entries.Load(userID)
	if !ok {
		return models.ExpectationNone
	}
	entry := v.(expectationEntry)
	if s.ttl > 0 && s.now().Sub(entry.setAt) > s.ttl {
		s.entries.CompareAndDelete(userID, entry)
		slog.Debug("ContextStore expectation expired", "userID", userID, "kind", entry.kind)
		return models.ExpectationNone
	}
	return entry.kind
}

// Clear removes the user's expectation.
func (s *MemoryContextStore) Clear(userID int64) {
	if _, loaded := s.entries.LoadAndDelete(userID); loaded {
		slog.Debug("ContextStore Clear", "userID", userID)
	}
}
