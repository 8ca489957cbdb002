package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão do engine para uma requisição que casou ao
// menos uma regra.
//
// Path entra como veio da requisição; cuidado com cardinalidade em Redis e
// Prometheus. Rules fica limitado ao tamanho do registry.
type StatsEvent struct {
	Allowed bool
	Method  string
	Path    string

	// Rules são as regras casadas; LockedBy a que definiu o Retry-After.
	Rules      []RuleKey
	LockedBy   RuleKey
	RetryAfter time.Duration

	At time.Time
}

// StatsStore recebe os eventos; erro é best-effort e não derruba a request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
