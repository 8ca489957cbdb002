package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type config struct {
	listenAddr     string
	upstreamURL    string
	metricsAddr    string
	logLevel       string
	logFormat      string
	rateEnabled    bool
	rulesFile      string
	failOpen       bool
	stripPrefix    string
	methodOverride bool
	counterPrefix  string
	lockPrefix     string

	store         string // "memory" ou "redis"
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	cleanupEvery  time.Duration

	rateStatsEnabled    bool
	rateStatsPrefix     string
	rateStatsTTL        time.Duration
	rateStatsBucket     string
	rateStatsTrackRules bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.metricsAddr = getenvDefault("METRICS_ADDR", ":9090")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.rulesFile = os.Getenv("RATE_RULES_FILE")
	cfg.failOpen = getenvBoolDefault("RATE_FAIL_OPEN", true)
	cfg.stripPrefix = os.Getenv("RATE_STRIP_PREFIX")
	cfg.methodOverride = getenvBoolDefault("RATE_METHOD_OVERRIDE", false)
	cfg.counterPrefix = getenvDefault("RATE_COUNTER_PREFIX", "exoskeleton_counter_")
	cfg.lockPrefix = getenvDefault("RATE_LOCK_PREFIX", "exoskeleton_lock_")

	cfg.store = strings.ToLower(getenvDefault("RATE_STORE", "memory"))
	cfg.redisAddr = os.Getenv("RATE_REDIS_ADDR")
	cfg.redisPassword = os.Getenv("RATE_REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("RATE_REDIS_DB", 0)
	cfg.redisPrefix = os.Getenv("RATE_REDIS_PREFIX")
	cfg.cleanupEvery = getenvDurationDefault("RATE_CLEANUP_EVERY", time.Minute)

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackRules = getenvBoolDefault("RATE_STATS_TRACK_RULES", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.store != "memory" && cfg.store != "redis" {
		return config{}, errors.New("RATE_STORE must be memory or redis")
	}
	if cfg.store == "redis" && strings.TrimSpace(cfg.redisAddr) == "" {
		return config{}, errors.New("RATE_REDIS_ADDR is required when RATE_STORE=redis")
	}
	if cfg.rateStatsEnabled && cfg.store != "redis" {
		return config{}, errors.New("RATE_STATS_ENABLED=true requires RATE_STORE=redis")
	}
	if cfg.rateEnabled && cfg.rulesFile == "" {
		return config{}, errors.New("RATE_RULES_FILE is required when RATE_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
