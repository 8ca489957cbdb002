package infra

import (
	"context"
	"strings"

	"lockout-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStats exporta as decisões como métricas Prometheus.
//
// Labels: method e verdict nas requisições; rule (chave da regra) nas
// rejeições. O path não vira label (cardinalidade).
//
// Métodos fora da enumeração viram "OTHER": r.Method e o override vêm do
// cliente e não podem criar séries novas.
type PrometheusStats struct {
	Requests   *prometheus.CounterVec
	Rejections *prometheus.CounterVec
	RetryAfter prometheus.Histogram

	methods []string
}

// OtherMethod é o label de método para valores fora da enumeração.
const OtherMethod = "OTHER"

// NewPrometheusStats registra as métricas em reg (nil = registry padrão).
// methods é a enumeração de métodos conhecidos; vazio usa
// domain.DefaultMethods.
func NewPrometheusStats(reg prometheus.Registerer, methods ...string) *PrometheusStats {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusStats{
		methods: methods,
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockout_gateway_requests_total",
				Help: "Requests evaluated by the lockout rate limiter",
			},
			[]string{"method", "verdict"},
		),
		Rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockout_gateway_rejections_total",
				Help: "Rejected requests by the rule holding the lock",
			},
			[]string{"rule"},
		),
		RetryAfter: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lockout_gateway_retry_after_seconds",
				Help:    "Retry-After returned to rejected requests",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	verdict := "admit"
	if !ev.Allowed {
		verdict = "reject"
	}
	method := strings.ToUpper(ev.Method)
	if !domain.KnownMethod(method, p.methods) {
		method = OtherMethod
	}
	p.Requests.WithLabelValues(method, verdict).Inc()

	if !ev.Allowed {
		if ev.LockedBy != "" {
			p.Rejections.WithLabelValues(string(ev.LockedBy)).Inc()
		}
		p.RetryAfter.Observe(ev.RetryAfter.Seconds())
	}
	return nil
}

// MultiStats repassa o evento para vários stores e devolve o primeiro erro.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
