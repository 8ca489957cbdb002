package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lockout-gateway/middleware/ratelimit/domain"
)

// Evaluator é o engine visto pelo middleware (application.Engine).
type Evaluator interface {
	Evaluate(ctx context.Context, path, method string) (domain.Verdict, error)
}

// RouteFunc extrai o path que é comparado com as rotas das regras.
type RouteFunc func(r *http.Request) string

type Options struct {
	Engine Evaluator
	Stats  domain.StatsStore
	Logger *zap.Logger

	// RouteFn tem precedência sobre StripPrefix.
	RouteFn     RouteFunc
	StripPrefix string
	// MethodOverride usa X-HTTP-Method-Override em requisições POST.
	MethodOverride bool
	// Methods limita os valores aceitos no override; vazio usa
	// domain.DefaultMethods. Valores fora da lista são ignorados.
	Methods []string

	// FailOpen deixa a requisição seguir quando o store falha;
	// caso contrário responde 503.
	FailOpen     bool
	RejectStatus int
	// ErrorLogEvery limita a frequência dos logs de falha do store.
	ErrorLogEvery time.Duration
}

const rejectMessage = "too many requests for this endpoint, consult Retry-After and come back later"

// DefaultRouteFunc usa r.URL.Path sem o prefixo informado (ex: "/wp-json").
func DefaultRouteFunc(stripPrefix string) RouteFunc {
	stripPrefix = strings.TrimRight(stripPrefix, "/")
	return func(r *http.Request) string {
		p := r.URL.Path
		if stripPrefix == "" {
			return p
		}
		rest, ok := strings.CutPrefix(p, stripPrefix)
		if !ok || (rest != "" && rest[0] != '/') {
			return p
		}
		if rest == "" {
			return "/"
		}
		return rest
	}
}

func requestMethod(r *http.Request, override bool, methods []string) string {
	if override && r.Method == http.MethodPost {
		if m := strings.TrimSpace(r.Header.Get("X-HTTP-Method-Override")); m != "" && domain.KnownMethod(m, methods) {
			return strings.ToUpper(m)
		}
	}
	return r.Method
}

// Middleware é o hook pré-dispatch: avalia (path, method) antes do handler.
//
// Bloqueado: responde 429 com Retry-After e Cache-Control e não chama next.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RouteFn == nil {
		opts.RouteFn = DefaultRouteFunc(opts.StripPrefix)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ErrorLogEvery <= 0 {
		opts.ErrorLogEvery = 10 * time.Second
	}
	errLog := &rate.Sometimes{First: 1, Interval: opts.ErrorLogEvery}

	return func(next http.Handler) http.Handler {
		if opts.Engine == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := opts.RouteFn(r)
			method := requestMethod(r, opts.MethodOverride, opts.Methods)

			dec, err := opts.Engine.Evaluate(r.Context(), path, method)
			if err != nil {
				errLog.Do(func() {
					opts.Logger.Error("rate limit evaluation failed",
						zap.Error(err),
						zap.Bool("store_error", errors.Is(err, domain.ErrStore)),
						zap.Bool("fail_open", opts.FailOpen),
						zap.String("method", method),
						zap.String("path", path),
					)
				})
				if !opts.FailOpen {
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if opts.Stats != nil && len(dec.Matched) > 0 {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Allowed:    dec.Allowed,
					Method:     method,
					Path:       path,
					Rules:      dec.Matched,
					LockedBy:   dec.LockedBy,
					RetryAfter: dec.RetryAfter,
					At:         time.Now(),
				})
			}
			if !dec.Allowed {
				secs := formatSeconds(dec.RetryAfter)
				opts.Logger.Debug("request locked out",
					zap.String("method", method),
					zap.String("path", path),
					zap.String("rule", string(dec.LockedBy)),
					zap.String("retry_after", secs),
				)
				w.Header().Set("Retry-After", secs)
				w.Header().Set("Cache-Control", "public, max-age="+secs)
				http.Error(w, rejectMessage, opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
