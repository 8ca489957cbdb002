package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"lockout-gateway/middleware/ratelimit"
	"lockout-gateway/middleware/ratelimit/application"
	"lockout-gateway/middleware/ratelimit/domain"
	"lockout-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.logLevel, cfg.logFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.Error(err), zap.String("path", r.URL.Path))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rf rulesFile
	if cfg.rateEnabled {
		rf, err = loadRules(cfg.rulesFile)
		if err != nil {
			logger.Fatal("rules error", zap.Error(err))
		}
	}

	promReg := prometheus.NewRegistry()
	stats := infra.MultiStats{infra.NewPrometheusStats(promReg, rf.Methods...)}

	var store domain.KVStore
	switch cfg.store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rs := infra.NewRedisKV(rdb, infra.WithKeyPrefix(cfg.redisPrefix))
		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		err := rs.Ping(pingCtx)
		cancelPing()
		if err != nil {
			logger.Fatal("redis ping error", zap.Error(err), zap.String("addr", cfg.redisAddr))
		}
		store = rs

		if cfg.rateStatsEnabled {
			stats = append(stats, infra.NewRedisStatsStore(
				rdb,
				infra.WithStatsPrefix(cfg.rateStatsPrefix),
				infra.WithStatsTTL(cfg.rateStatsTTL),
				infra.WithStatsBucket(cfg.rateStatsBucket),
				infra.WithStatsTrackRules(cfg.rateStatsTrackRules),
			))
		}
	default:
		mem := infra.NewMemoryKV(infra.WithCleanupEvery(cfg.cleanupEvery))
		mem.StartJanitor(ctx)
		store = mem
	}

	reg := application.NewRegistry(
		application.WithRegistryLogger(logger),
		application.WithMethods(rf.Methods...),
	)
	nRules, nEndpoints := rf.register(reg)
	logger.Info("rules registered",
		zap.Int("rules", nRules),
		zap.Int("rules_rejected", len(rf.Rules)-nRules),
		zap.Int("endpoint_rules", nEndpoints),
	)

	engine := application.NewEngine(reg, store,
		application.WithPrefixes(cfg.counterPrefix, cfg.lockPrefix),
		application.WithEngineLogger(logger),
	)

	h := http.Handler(proxy)
	if cfg.rateEnabled {
		h = ratelimit.Middleware(ratelimit.Options{
			Engine:         engine,
			Stats:          stats,
			Logger:         logger,
			StripPrefix:    cfg.stripPrefix,
			MethodOverride: cfg.methodOverride,
			Methods:        rf.Methods,
			FailOpen:       cfg.failOpen,
		})(h)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	adminMux.Handle("/rules", ratelimit.RulesHandler(reg))
	admin := &http.Server{
		Addr:              cfg.metricsAddr,
		Handler:           adminMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = admin.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", zap.Error(err))
		}
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()),
		zap.String("admin_addr", cfg.metricsAddr),
	)
	logger.Info("rate",
		zap.Bool("enabled", cfg.rateEnabled),
		zap.String("store", cfg.store),
		zap.Int("rules", reg.Len()),
		zap.Bool("fail_open", cfg.failOpen),
		zap.String("strip_prefix", cfg.stripPrefix),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
