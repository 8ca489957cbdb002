package application

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeEntry struct {
	val []byte
	ttl time.Duration
	exp time.Time
}

// fakeKV respeita TTL usando o relógio fake e guarda o último TTL gravado.
type fakeKV struct {
	mu      sync.Mutex
	clock   *fakeClock
	entries map[string]fakeEntry
	err     error
	sets    int
}

func newFakeKV(c *fakeClock) *fakeKV {
	return &fakeKV{clock: c, entries: make(map[string]fakeEntry)}
}

func (s *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !s.clock.Now().Before(e.exp) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *fakeKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sets++
	e := fakeEntry{val: append([]byte(nil), value...), ttl: ttl}
	if ttl > 0 {
		e.exp = s.clock.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *fakeKV) ttl(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e.ttl, ok
}

var errDown = errors.New("connection refused")
