package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	UserServiceURL        string
	BookServiceURL        string
	ReservationServiceURL string
	BackendRPS            int
	BackendTimeout        time.Duration // 0 = no per-call timeout

	EnrichConcurrency int
	RequestTimeout    time.Duration
	AllowedOrigins    []string // CORS; empty disables it

	RedisAddr      string // empty disables Idempotency-Key support
	RedisDB        int
	RedisPass      string
	IdempotencyTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		UserServiceURL:        env("USER_SERVICE_URL", "http://user-service:5001"),
		BookServiceURL:        env("BOOK_SERVICE_URL", "http://book-service:5002"),
		ReservationServiceURL: env("RESERVATION_SERVICE_URL", "http://reservation-service:5003"),
		BackendRPS:            atoi("BACKEND_RPS", 0),
		BackendTimeout:        time.Duration(atoi("BACKEND_TIMEOUT_SECONDS", 0)) * time.Second,

		EnrichConcurrency: atoi("ENRICH_CONCURRENCY", 16),
		RequestTimeout:    time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		AllowedOrigins:    list(env("CORS_ALLOWED_ORIGINS", "*")),

		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		IdempotencyTTL: time.Duration(atoi("IDEMPOTENCY_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.BackendTimeout == 0 {
		log.Warn().Msg("BACKEND_TIMEOUT_SECONDS is 0; backend calls have no per-call timeout")
	}
	return c
}

// list splits a comma-separated value; "none" yields an empty list.
func list(v string) []string {
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
