package storage

import (
	"sync"
	"time"
)

const (
	DefaultTTL   = 10 * time.Minute
	DefaultLimit = 1024
)

type flashEntry struct {
	messages []string
	added    time.Time
}

// FlashStore keeps one-shot messages per browser session until they are
// shown. Sessions that are never read back expire after the TTL, and the
// store never holds more than its limit; when full, the oldest session is
// dropped to make room.
type FlashStore struct {
	entries map[string]*flashEntry
	ttl     time.Duration
	limit   int
	mu      sync.Mutex

	now func() time.Time
}

func New() *FlashStore {
	return NewWithLimits(DefaultTTL, DefaultLimit)
}

// NewWithLimits builds a store with a custom TTL and session cap.
// Non-positive values fall back to the defaults.
func NewWithLimits(ttl time.Duration, limit int) *FlashStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FlashStore{
		entries: make(map[string]*flashEntry),
		ttl:     ttl,
		limit:   limit,
		now:     time.Now,
	}
}

// Add queues a message for the session.
func (s *FlashStore) Add(sessionID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	if e, ok := s.entries[sessionID]; ok {
		e.messages = append(e.messages, message)
		return
	}
	if len(s.entries) >= s.limit {
		s.evictOldestLocked()
	}
	s.entries[sessionID] = &flashEntry{messages: []string{message}, added: now}
}

// Pop returns and forgets the pending messages for the session. Expired
// messages are discarded.
func (s *FlashStore) Pop(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return nil
	}
	delete(s.entries, sessionID)
	if s.now().Sub(e.added) > s.ttl {
		return nil
	}
	return e.messages
}

// Len reports how many sessions have pending messages.
func (s *FlashStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *FlashStore) pruneLocked(now time.Time) {
	for id, e := range s.entries {
		if now.Sub(e.added) > s.ttl {
			delete(s.entries, id)
		}
	}
}

func (s *FlashStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.added.Before(oldest) {
			oldestID, oldest = id, e.added
		}
	}
	delete(s.entries, oldestID)
}
