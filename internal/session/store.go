// Package session keeps generated bundles in memory between the web
// generate, download and regenerate calls.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one generated result kept for download and regeneration.
type Entry struct {
	Bundle           []byte
	AdGroupIDs       []string
	KeywordsPerGroup int
	OutputName       string
	POIFilterSet     string
	CreatedAt        time.Time
}

// Store is a token-keyed in-memory cache with a fixed time-to-live.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store. A non-positive ttl keeps entries until taken.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores e under a new random token and returns the token.
func (s *Store) Put(e Entry) string {
	token := uuid.NewString()
	e.AdGroupIDs = slices.Clone(e.AdGroupIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.entries[token] = e
	return token
}

// Get returns the entry for token without removing it.
func (s *Store) Get(token string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return Entry{}, false
	}
	if s.expired(e) {
		delete(s.entries, token)
		return Entry{}, false
	}
	return e, true
}

// Take removes and returns the entry for token so a download is served once.
func (s *Store) Take(token string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return Entry{}, false
	}
	delete(s.entries, token)
	if s.expired(e) {
		return Entry{}, false
	}
	return e, true
}

// Len returns the number of live and not yet swept entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	log := zap.L().With(zap.String("component", "session.janitor"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug("session: swept expired entries", zap.Int("removed", n))
			}
		}
	}
}

func (s *Store) expired(e Entry) bool {
	return s.ttl > 0 && s.now().Sub(e.CreatedAt) > s.ttl
}
