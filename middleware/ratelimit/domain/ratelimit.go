package domain

import (
	"context"
	"errors"
	"time"
)

// Prefixos padrão das chaves no KVStore.
const (
	DefaultCounterPrefix = "exoskeleton_counter_"
	DefaultLockPrefix    = "exoskeleton_lock_"
)

// ErrStore embrulha falhas do KVStore. Use errors.Is(err, ErrStore).
var ErrStore = errors.New("rate limit store")

// KVStore é o armazenamento de contadores e locks.
//
// Get retorna ok=false quando a chave não existe ou expirou.
// Set grava o valor com TTL; ttl <= 0 significa sem expiração.
// A implementação precisa ser atômica por chave (Redis, memória, etc).
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Counter é o contador de requisições de uma regra dentro da janela.
type Counter struct {
	StartedCountingAt int64 `json:"started_counting_at"`
	Value             int64 `json:"value"`
}

// Lock é gravado quando o contador atinge o limite.
//
// Lockout é copiado da regra no momento do bloqueio. O Retry-After é
// calculado a partir do lock, não da regra atual.
type Lock struct {
	Lockout float64 `json:"lockout"`
	LockSet int64   `json:"lock_set"`
}

// Verdict é a decisão do engine para uma requisição.
type Verdict struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear,
	// em segundos inteiros e nunca menor que 1s. Zero quando permitido.
	RetryAfter time.Duration

	// Matched lista as regras que casaram com a requisição.
	Matched []RuleKey
	// LockedBy é a regra cujo lock produziu o RetryAfter.
	LockedBy RuleKey
}

// Endpoint é uma rota estática que declara uma regra embutida.
//
// Methods vazio significa que a rota aceita qualquer método.
type Endpoint struct {
	Route   string
	Methods []string
	Rule    RuleArgs
}
