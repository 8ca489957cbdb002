package application

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"lockout-gateway/middleware/ratelimit/domain"
)

// RegisteredRule é uma regra aceita pelo Registry junto com sua chave.
type RegisteredRule struct {
	Key  domain.RuleKey `json:"key"`
	Rule domain.Rule    `json:"rule"`

	route domain.Route
}

// Registry guarda as regras registradas.
//
// Regras são adicionadas na fase de setup; durante o serving o registry é
// apenas lido. Não existe update/delete: registrar de novo é rejeição.
type Registry struct {
	mu      sync.RWMutex
	rules   map[domain.RuleKey]int
	ordered []RegisteredRule

	methods []string
	log     *zap.Logger
}

type RegistryOption func(*Registry)

// WithMethods define a enumeração de métodos do framework HTTP.
func WithMethods(methods ...string) RegistryOption {
	return func(r *Registry) { r.methods = methods }
}

func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rules: make(map[domain.RuleKey]int),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add aplica defaults, valida e registra a regra.
//
// Retorna false (sem alterar nada) se a regra for inválida ou se a chave,
// ou sua variante "any", já existir.
func (r *Registry) Add(args domain.RuleArgs) bool {
	rule, err := domain.ValidateRule(domain.ApplyDefaults(args), r.methods)
	if err != nil {
		r.log.Debug("rule rejected", zap.Error(err), zap.Any("route", args[domain.FieldRoute]))
		return false
	}

	key := domain.Fingerprint(rule)
	anyKey := domain.AnyVariant(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[key]; ok {
		r.log.Debug("rule rejected", zap.Error(errDuplicate), zap.String("key", string(key)))
		return false
	}
	if _, ok := r.rules[anyKey]; ok {
		r.log.Debug("rule rejected", zap.Error(errDuplicate), zap.String("key", string(anyKey)))
		return false
	}
	// variante concreta já registrada impede uma regra "any" com o mesmo digest
	if key.IsAny() {
		for k := range r.rules {
			if k.Digest() == key.Digest() {
				r.log.Debug("rule rejected", zap.Error(errDuplicate), zap.String("key", string(k)))
				return false
			}
		}
	}

	route := domain.CompileRoute(rule.Route)
	if route.Err() != nil {
		r.log.Warn("rule route does not compile, it will never match",
			zap.String("route", rule.Route), zap.Error(route.Err()))
	}

	r.rules[key] = len(r.ordered)
	r.ordered = append(r.ordered, RegisteredRule{Key: key, Rule: rule, route: route})
	r.log.Debug("rule added", zap.String("key", string(key)), zap.String("route", rule.Route), zap.String("method", rule.Method))
	return true
}

// AddAll aplica Add em cada regra ignorando falhas individuais.
// Retorna quantas foram registradas.
func (r *Registry) AddAll(rules ...domain.RuleArgs) int {
	n := 0
	for _, args := range rules {
		if r.Add(args) {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Rules retorna uma cópia das regras na ordem de registro.
func (r *Registry) Rules() []RegisteredRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RegisteredRule, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Reset remove todas as regras. Uso: harness de testes / processo dono.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[domain.RuleKey]int)
	r.ordered = nil
}

var errDuplicate = errors.New("duplicate rule")
