package infra

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lockout-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava as decisões em hashes:
//
//	<prefix>:total                  allowed|denied (cumulativo)
//	<prefix>:minute:<yyyymmddhhmm>  allowed|denied (expira em ttl)
//	<prefix>:route                  "<METHOD> <path>:allowed|denied" (expira em ttl)
//	<prefix>:rejections             <rule key> -> rejeições causadas
//	<prefix>:retry_after            <rule key> -> soma dos Retry-After (s)
//	<prefix>:rule:<rule key>        allowed|denied (com WithStatsTrackRules)
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix     string
	ttl        time.Duration
	bucket     string // "minute" (padrão) ou "none"
	trackRules bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// WithStatsTTL vale para os buckets, o hash de rotas e as chaves por regra.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackRules(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackRules = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func verdictField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	field := verdictField(ev.Allowed)

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.key("total"), field, 1)

		if s.bucket == "minute" {
			s.incrExpiring(ctx, pipe, s.key("minute", ev.At.UTC().Format("200601021504")), field)
		}

		if route := strings.TrimSpace(ev.Method + " " + strings.TrimSpace(ev.Path)); route != "" {
			s.incrExpiring(ctx, pipe, s.key("route"), route+":"+field)
		}

		if ev.LockedBy != "" {
			lockedBy := string(ev.LockedBy)
			pipe.HIncrBy(ctx, s.key("rejections"), lockedBy, 1)
			if ev.RetryAfter > 0 {
				pipe.HIncrByFloat(ctx, s.key("retry_after"), lockedBy, ev.RetryAfter.Seconds())
			}
		}

		if s.trackRules {
			for _, k := range ev.Rules {
				s.incrExpiring(ctx, pipe, s.key("rule", string(k)), field)
			}
		}
		return nil
	})
	return err
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Rejections lê de volta <prefix>:rejections.
func (s *RedisStatsStore) Rejections(ctx context.Context) (map[domain.RuleKey]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key("rejections")).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.RuleKey]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[domain.RuleKey(k)] = n
	}
	return out, nil
}
