package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"lockout-gateway/middleware/ratelimit/domain"
)

// Engine concentra a decisão do rate limit com lockout.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna um Verdict.
type Engine struct {
	registry *Registry
	store    domain.KVStore

	counterPrefix string
	lockPrefix    string
	now           func() time.Time
	log           *zap.Logger
}

type EngineOption func(*Engine)

func WithPrefixes(counter, lock string) EngineOption {
	return func(e *Engine) {
		if counter != "" {
			e.counterPrefix = counter
		}
		if lock != "" {
			e.lockPrefix = lock
		}
	}
}

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(reg *Registry, store domain.KVStore, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:      reg,
		store:         store,
		counterPrefix: domain.DefaultCounterPrefix,
		lockPrefix:    domain.DefaultLockPrefix,
		now:           time.Now,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decide se a requisição (path, method) pode seguir.
//
// Todas as regras que casam são avaliadas, sem curto-circuito: contadores e
// locks de cada uma são atualizados mesmo que outra já tenha bloqueado.
// O Verdict bloqueia se qualquer regra bloquear; vale o maior Retry-After.
//
// Erro do store interrompe a avaliação e é devolvido embrulhado em
// domain.ErrStore; a política fail-open/fail-closed é de quem chama.
func (e *Engine) Evaluate(ctx context.Context, path, method string) (domain.Verdict, error) {
	v := domain.Verdict{Allowed: true}
	if e == nil || e.registry == nil || e.store == nil {
		return v, nil
	}

	now := e.now()
	for _, rr := range e.registry.Rules() {
		if !rr.route.Match(path) || !domain.MatchMethod(method, rr.Rule) {
			continue
		}
		v.Matched = append(v.Matched, rr.Key)

		retryAfter, locked, err := e.checkAndRecord(ctx, rr.Key, rr.Rule, now)
		if err != nil {
			return domain.Verdict{Allowed: true, Matched: v.Matched}, err
		}
		if locked {
			v.Allowed = false
			if retryAfter > v.RetryAfter {
				v.RetryAfter = retryAfter
				v.LockedBy = rr.Key
			}
		}
	}
	return v, nil
}

// checkAndRecord avalia uma regra: lock primeiro; sem lock, incrementa o
// contador e grava o lock quando o limite é atingido. A requisição que
// atinge o limite ainda passa; só a próxima é bloqueada.
func (e *Engine) checkAndRecord(ctx context.Context, key domain.RuleKey, rule domain.Rule, now time.Time) (time.Duration, bool, error) {
	lock, found, err := e.getLock(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if found {
		return retryAfter(lock, now), true, nil
	}

	count, err := e.incrementCounter(ctx, key, rule, now)
	if err != nil {
		return 0, false, err
	}

	if float64(count) >= rule.Limit {
		if err := e.setLock(ctx, key, rule, now); err != nil {
			return 0, false, err
		}
		e.log.Info("rule locked",
			zap.String("key", string(key)),
			zap.String("route", rule.Route),
			zap.String("method", rule.Method),
			zap.Int64("count", count),
			zap.Float64("lockout", rule.Lockout),
		)
	}
	return 0, false, nil
}

// getLock procura o lock da chave e, se não houver, o lock universal (any)
// do mesmo digest.
func (e *Engine) getLock(ctx context.Context, key domain.RuleKey) (domain.Lock, bool, error) {
	var lock domain.Lock
	found, err := e.read(ctx, e.lockPrefix+string(key), &lock)
	if err != nil || found {
		return lock, found, err
	}

	anyKey := domain.AnyVariant(key)
	if anyKey == key {
		return domain.Lock{}, false, nil
	}
	found, err = e.read(ctx, e.lockPrefix+string(anyKey), &lock)
	return lock, found, err
}

func (e *Engine) setLock(ctx context.Context, key domain.RuleKey, rule domain.Rule, now time.Time) error {
	lock := domain.Lock{Lockout: rule.Lockout, LockSet: now.Unix()}
	return e.write(ctx, e.lockPrefix+string(key), lock, seconds(rule.Lockout))
}

// incrementCounter retorna o valor do contador após o incremento.
//
// O TTL de um contador existente encolhe com o tempo já decorrido (mínimo 1s),
// então a janela termina no limite original, sem ser renovada.
func (e *Engine) incrementCounter(ctx context.Context, key domain.RuleKey, rule domain.Rule, now time.Time) (int64, error) {
	id := e.counterPrefix + string(key)

	var c domain.Counter
	found, err := e.read(ctx, id, &c)
	if err != nil {
		return 0, err
	}

	ttl := seconds(rule.Window)
	if found {
		c.Value++
		left := rule.Window - float64(now.Unix()-c.StartedCountingAt)
		ttl = seconds(math.Max(1, left))
	} else {
		c = domain.Counter{StartedCountingAt: now.Unix(), Value: 1}
	}

	if err := e.write(ctx, id, c, ttl); err != nil {
		return 0, err
	}
	return c.Value, nil
}

// read decodifica o registro em dst. Registro corrompido conta como ausente.
func (e *Engine) read(ctx context.Context, id string, dst any) (bool, error) {
	b, ok, err := e.store.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", domain.ErrStore, id, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		e.log.Warn("discarding undecodable record", zap.String("id", id), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (e *Engine) write(ctx context.Context, id string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if err := e.store.Set(ctx, id, b, ttl); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrStore, id, err)
	}
	return nil
}

// retryAfter usa o lockout gravado no lock (a regra pode ter mudado).
func retryAfter(lock domain.Lock, now time.Time) time.Duration {
	left := math.Ceil(lock.Lockout - float64(now.Unix()-lock.LockSet))
	if left < 1 {
		left = 1
	}
	return time.Duration(left) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
