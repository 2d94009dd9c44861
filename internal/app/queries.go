package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"library_gateway/internal/adapters/observability"
	"library_gateway/internal/domain"
)

type batchFunc[T any] func(ctx context.Context, ids []int64) (Lookup[T], error)

// ReservationViews builds the denormalized reservation listing.
type ReservationViews struct {
	reservations domain.ReservationBackend
	users        domain.UserDirectory
	books        domain.Catalog
	limit        int

	enrichUsers batchFunc[domain.UserRecord]
	enrichBooks batchFunc[domain.BookRecord]
}

// NewReservationViews wires the three backends. concurrency bounds in-flight lookups
// per batch; <= 0 means one goroutine per id.
func NewReservationViews(r domain.ReservationBackend, u domain.UserDirectory, b domain.Catalog, concurrency int) *ReservationViews {
	s := &ReservationViews{reservations: r, users: u, books: b, limit: concurrency}
	s.enrichUsers = func(ctx context.Context, ids []int64) (Lookup[domain.UserRecord], error) {
		return Enrich[domain.UserRecord](ctx, string(FieldUser), ids, s.limit, s.fetchUser)
	}
	s.enrichBooks = func(ctx context.Context, ids []int64) (Lookup[domain.BookRecord], error) {
		return Enrich[domain.BookRecord](ctx, string(FieldBook), ids, s.limit, s.fetchBook)
	}
	return s
}

// ListReservationsView returns every reservation with user and book names filled in
// where they could be resolved. Only a failure of the reservation backend itself is
// returned as an error; enrichment problems leave names empty.
func (s *ReservationViews) ListReservationsView(ctx context.Context) ([]domain.ReservationRecord, error) {
	// The listing runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	raw, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	items, ok := reservationItems(decodeAny(raw))
	if !ok {
		log.Debug().Int("bytes", len(raw)).Msg("reservation payload has no list field; returning empty view")
		return []domain.ReservationRecord{}, nil
	}
	records := mapReservations(items)

	userIDs := PendingIDs(records, FieldUser)
	bookIDs := PendingIDs(records, FieldBook)

	var (
		wg    sync.WaitGroup
		users Lookup[domain.UserRecord]
		books Lookup[domain.BookRecord]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		users = runBatch(ctx, FieldUser, userIDs, s.enrichUsers)
	}()
	go func() {
		defer wg.Done()
		books = runBatch(ctx, FieldBook, bookIDs, s.enrichBooks)
	}()
	wg.Wait()

	for i := range records {
		r := &records[i]
		if r.UserName == "" {
			if u, ok := users.Get(r.UserID); ok {
				r.UserName = u.Name
			}
		}
		if r.BookName == "" {
			if b, ok := books.Get(r.BookID); ok {
				r.BookName = b.BookName
			}
		}
	}
	return records, nil
}

// runBatch executes one enrichment batch and absorbs any failure of the batch itself.
func runBatch[T any](ctx context.Context, field Field, ids []int64, fn batchFunc[T]) (out Lookup[T]) {
	if len(ids) == 0 {
		return nil
	}
	kind := string(field)

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("kind", kind).Int("ids", len(ids)).Interface("panic", r).
				Msg("enrichment batch panicked; continuing without names")
			observability.ObserveBatchFailure(kind)
			out = nil
		}
	}()

	res, err := fn(ctx, ids)
	if err != nil {
		log.Warn().Str("kind", kind).Int("ids", len(ids)).Err(err).
			Msg("enrichment batch failed; continuing without names")
		observability.ObserveBatchFailure(kind)
		return nil
	}
	for _, r := range res {
		if r.Found {
			observability.ObserveEnrichment(kind, "resolved")
		} else {
			observability.ObserveEnrichment(kind, "absent")
		}
	}
	return res
}

func (s *ReservationViews) fetchUser(ctx context.Context, id int64) (domain.UserRecord, error) {
	raw, err := s.users.GetUser(ctx, id)
	if err != nil {
		return domain.UserRecord{}, err
	}
	u := mapUser(id, decodeObject(raw))
	if u.Name == "" {
		return domain.UserRecord{}, fmt.Errorf("user %d has no name: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *ReservationViews) fetchBook(ctx context.Context, id int64) (domain.BookRecord, error) {
	raw, err := s.books.GetBook(ctx, id)
	if err != nil {
		return domain.BookRecord{}, err
	}
	b := mapBook(id, decodeObject(raw))
	if b.BookName == "" {
		return domain.BookRecord{}, fmt.Errorf("book %d has no name: %w", id, domain.ErrNotFound)
	}
	return b, nil
}
