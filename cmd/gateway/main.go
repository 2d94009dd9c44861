package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"library_gateway/internal/adapters/backend"
	server "library_gateway/internal/adapters/http_server"
	"library_gateway/internal/adapters/observability"
	redisad "library_gateway/internal/adapters/redis"
	"library_gateway/internal/app"
	"library_gateway/internal/domain"
	"library_gateway/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(os.Stdout, cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// backends
	opt := backend.Options{Timeout: cfg.BackendTimeout, RPS: cfg.BackendRPS}
	userClient, err := backend.New("user-service", cfg.UserServiceURL, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize user client")
	}
	bookClient, err := backend.New("book-service", cfg.BookServiceURL, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize book client")
	}
	resClient, err := backend.New("reservation-service", cfg.ReservationServiceURL, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize reservation client")
	}
	users := backend.NewUsers(userClient)
	books := backend.NewCatalog(bookClient)
	reservations := backend.NewReservations(resClient)

	// optional idempotency store
	var store domain.IdempotencyStore
	if cfg.RedisAddr != "" {
		rs := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; idempotency keys degrade to plain forwards")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
		}
		cancel()
		defer rs.Close()
		store = rs
	}

	views := app.NewReservationViews(reservations, users, books, cfg.EnrichConcurrency)
	commands := app.NewReservationCommands(reservations, store, cfg.IdempotencyTTL)

	// http
	srv := server.New(server.Options{RequestTimeout: cfg.RequestTimeout, AllowedOrigins: cfg.AllowedOrigins})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Views: views, Commands: commands, Users: users, Books: books})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).
			Str("users", cfg.UserServiceURL).
			Str("books", cfg.BookServiceURL).
			Str("reservations", cfg.ReservationServiceURL).
			Msg("gateway listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
