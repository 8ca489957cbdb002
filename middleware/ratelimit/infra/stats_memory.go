package infra

import (
	"context"
	"maps"
	"sync"

	"lockout-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore guarda contadores no processo, sem expiração.
// Serve para testes e para um gateway de instância única.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byRoute    map[string]*Counters
	byRule     map[domain.RuleKey]*Counters
	rejections map[domain.RuleKey]int64

	trackRules bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackRules conta decisões por regra casada.
func WithTrackRules(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackRules = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:    make(map[string]*Counters),
		byRule:     make(map[domain.RuleKey]*Counters),
		rejections: make(map[domain.RuleKey]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func counterFor[K comparable](m map[K]*Counters, k K) *Counters {
	c, ok := m[k]
	if !ok {
		c = &Counters{}
		m[k] = c
	}
	return c
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)
	counterFor(s.byRoute, ev.Method+" "+ev.Path).add(ev.Allowed)

	if ev.LockedBy != "" {
		s.rejections[ev.LockedBy]++
	}
	if s.trackRules {
		for _, k := range ev.Rules {
			counterFor(s.byRule, k).add(ev.Allowed)
		}
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func snapshot[K comparable](m map[K]*Counters) map[K]Counters {
	out := make(map[K]Counters, len(m))
	for k, v := range m {
		out[k] = *v
	}
	return out
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.byRoute)
}

func (s *MemoryStatsStore) ByRule() map[domain.RuleKey]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.byRule)
}

// Rejections conta quantas rejeições cada regra causou (LockedBy).
func (s *MemoryStatsStore) Rejections() map[domain.RuleKey]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.rejections)
}
