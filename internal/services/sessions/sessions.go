package sessions

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is how long a conversation thread is kept without a new turn.
	DefaultTTL = 24 * time.Hour
	// DefaultCleanupInterval is how often expired threads are swept.
	DefaultCleanupInterval = 10 * time.Minute
)

// Store maps a platform user id to the agent thread continuing their conversation.
// Entries expire after the TTL unless a newer turn records them again.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a new session store.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Store{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// GetThread returns the thread recorded for userID, if any.
func (s *Store) GetThread(userID string) (string, bool) {
	if userID == "" {
		return "", false
	}
	threadID, found := s.cache.Get(userID)
	if !found {
		return "", false
	}
	return threadID.(string), true
}

// RecordThread sets the thread for userID, replacing any previous one.
func (s *Store) RecordThread(userID, threadID string) {
	if userID == "" || threadID == "" {
		return
	}
	s.cache.Set(userID, threadID, s.ttl)
}

// Forget drops the thread for userID.
func (s *Store) Forget(userID string) {
	s.cache.Delete(userID)
}

// Count returns the number of cached threads, including expired ones not yet swept.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
