package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implementa domain.KVStore sobre Redis (GET / SET com EX/PX).
//
// Várias instâncias do gateway compartilham contadores e locks. Cada chave
// é atômica no Redis; a sequência ler-incrementar-gravar do engine não é.
type RedisKV struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix antepõe "prefix:" a toda chave (namespace por ambiente).
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(s *RedisKV) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisKV(rdb redis.UniversalClient, opts ...RedisKVOption) *RedisKV {
	s := &RedisKV{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisKV) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Get implementa domain.KVStore.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set implementa domain.KVStore. ttl <= 0 grava sem expiração.
func (s *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key(key), value, ttl).Err()
}

// Ping verifica a conexão (uso no bootstrap).
func (s *RedisKV) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
