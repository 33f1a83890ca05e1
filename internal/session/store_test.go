package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestStore_PutGet(t *testing.T) {
	s, clock := newTestStore(time.Minute)

	ids := []string{"g1", "g2"}
	token := s.Put(Entry{Bundle: []byte("zip"), AdGroupIDs: ids, KeywordsPerGroup: 10, OutputName: "out"})
	require.NotEmpty(t, token)

	// Caller's slice is not shared.
	ids[0] = "changed"

	e, ok := s.Get(token)
	require.True(t, ok)
	assert.Equal(t, []byte("zip"), e.Bundle)
	assert.Equal(t, []string{"g1", "g2"}, e.AdGroupIDs)
	assert.Equal(t, 10, e.KeywordsPerGroup)
	assert.Equal(t, clock.t, e.CreatedAt)

	// Get does not consume.
	_, ok = s.Get(token)
	assert.True(t, ok)
}

func TestStore_TokensAreUnique(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	a := s.Put(Entry{})
	b := s.Put(Entry{})
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, s.Len())
}

func TestStore_TakeIsOneShot(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	token := s.Put(Entry{Bundle: []byte("zip")})

	e, ok := s.Take(token)
	require.True(t, ok)
	assert.Equal(t, []byte("zip"), e.Bundle)

	_, ok = s.Take(token)
	assert.False(t, ok)
	_, ok = s.Get(token)
	assert.False(t, ok)
}

func TestStore_UnknownToken(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	_, ok := s.Get("nope")
	assert.False(t, ok)
	_, ok = s.Take("nope")
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	token := s.Put(Entry{Bundle: []byte("zip")})

	clock.t = clock.t.Add(2 * time.Minute)
	_, ok := s.Get(token)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.Put(Entry{})
	clock.t = clock.t.Add(90 * time.Second)
	fresh := s.Put(Entry{})

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(fresh)
	assert.True(t, ok)
}

func TestStore_NoTTLKeepsEntries(t *testing.T) {
	s, clock := newTestStore(0)
	token := s.Put(Entry{})
	clock.t = clock.t.Add(24 * time.Hour)
	assert.Equal(t, 0, s.Sweep())
	_, ok := s.Get(token)
	assert.True(t, ok)
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s := NewStore(time.Millisecond)
	s.Put(Entry{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Store.Run did not stop after context cancellation")
	}
}
