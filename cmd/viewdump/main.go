// viewdump prints the enriched reservation listing once and exits. Useful for
// checking backend wiring without starting the gateway.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"library_gateway/internal/adapters/backend"
	"library_gateway/internal/adapters/observability"
	"library_gateway/internal/app"
	"library_gateway/internal/domain"
	"library_gateway/internal/shared"
)

func main() {
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	cfg := shared.Load()

	// stdout carries the document only, so logs go to stderr
	log.Logger = observability.NewLogger(os.Stderr, cfg.AppEnv, cfg.LogLevel)

	if err := run(context.Background(), cfg, os.Stdout, *pretty); err != nil {
		log.Fatal().Err(err).Msg("viewdump failed")
	}
}

// run fetches the view and writes it to out as a single JSON document.
func run(ctx context.Context, cfg shared.Config, out io.Writer, pretty bool) error {
	opt := backend.Options{Timeout: cfg.BackendTimeout, RPS: cfg.BackendRPS}
	newClient := func(name, base string) (*backend.Client, error) {
		c, err := backend.New(name, base, opt)
		if err != nil {
			return nil, fmt.Errorf("init %s client: %w", name, err)
		}
		return c, nil
	}
	users, err := newClient("user-service", cfg.UserServiceURL)
	if err != nil {
		return err
	}
	books, err := newClient("book-service", cfg.BookServiceURL)
	if err != nil {
		return err
	}
	reservations, err := newClient("reservation-service", cfg.ReservationServiceURL)
	if err != nil {
		return err
	}

	views := app.NewReservationViews(
		backend.NewReservations(reservations),
		backend.NewUsers(users),
		backend.NewCatalog(books),
		cfg.EnrichConcurrency,
	)

	start := time.Now()
	records, err := views.ListReservationsView(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("reservations", len(records)).Dur("took", time.Since(start)).Msg("listing completed")

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(domain.ReservationsView{Reservations: records}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
