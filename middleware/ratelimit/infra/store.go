package infra

import (
	"context"
	"sync"
	"time"
)

// MemoryKV é uma implementação de domain.KVStore em memória, com TTL por
// chave e limpeza periódica.
//
// Serve para um único processo; com várias instâncias do gateway use RedisKV.
type MemoryKV struct {
	mu           sync.Mutex
	entries      map[string]memEntry
	now          func() time.Time
	cleanupEvery time.Duration
}

type memEntry struct {
	val       []byte
	expiresAt time.Time // zero = não expira
}

type MemoryOption func(*MemoryKV)

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(s *MemoryKV) { s.cleanupEvery = d }
}

// WithMemoryClock troca o relógio (testes).
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryKV) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryKV(opts ...MemoryOption) *MemoryKV {
	s := &MemoryKV{
		entries:      make(map[string]memEntry),
		now:          time.Now,
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryKV) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.KVStore.
func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if ent.expired(now) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), ent.val...), true, nil
}

// Set implementa domain.KVStore.
func (s *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ent := memEntry{val: append([]byte(nil), value...)}
	if ttl > 0 {
		ent.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = ent
	s.mu.Unlock()
	return nil
}

func (s *MemoryKV) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove as entradas expiradas.
func (s *MemoryKV) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.expired(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryKV) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
