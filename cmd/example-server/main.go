package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lockout-gateway/middleware/ratelimit"
	"lockout-gateway/middleware/ratelimit/application"
	"lockout-gateway/middleware/ratelimit/domain"
	"lockout-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

func main() {
	// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy)
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewMemoryKV()
	store.StartJanitor(ctx)

	reg := application.NewRegistry(application.WithRegistryLogger(logger))
	reg.Add(domain.RuleArgs{"route": "/login", "method": "POST", "window": 60, "limit": 5, "lockout": 300})
	application.RegisterEndpoints(reg, []domain.Endpoint{
		{Route: `/users/(?P<id>\d+)`, Methods: []string{"GET"}, Rule: domain.RuleArgs{"window": 10, "limit": 20, "lockout": 30}},
		{Route: "/health"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/_rules", ratelimit.RulesHandler(reg))

	h := ratelimit.Middleware(ratelimit.Options{
		Engine:   application.NewEngine(reg, store, application.WithEngineLogger(logger)),
		Logger:   logger,
		FailOpen: true,
	})(mux)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr), zap.Int("rules", reg.Len()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
