package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"library_gateway/internal/domain"
)

// claimTTL bounds how long an unfinished Idempotency-Key blocks retries.
const claimTTL = time.Minute

// ReservationCommands forwards reservation writes to the reservation backend.
type ReservationCommands struct {
	backend domain.ReservationBackend
	store   domain.IdempotencyStore
	ttl     time.Duration
}

// NewReservationCommands builds the write side. store may be nil, which disables
// Idempotency-Key replays.
func NewReservationCommands(b domain.ReservationBackend, store domain.IdempotencyStore, ttl time.Duration) *ReservationCommands {
	return &ReservationCommands{backend: b, store: store, ttl: ttl}
}

// Reserve creates a reservation. With a key and a store, the key is claimed before the
// backend is called: a key that already holds a response returns it with replayed=true,
// and a key whose first request is still running returns domain.ErrInFlight.
// Store errors never block the forward.
func (s *ReservationCommands) Reserve(ctx context.Context, key string, userID, bookID int64) (resp json.RawMessage, replayed bool, err error) {
	claimed := false
	if key != "" && s.store != nil {
		var stored json.RawMessage
		claimed, stored, err = s.store.Claim(ctx, idempotencyKey(key), claimTTL)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("idempotency claim failed; forwarding")
			claimed = false
		case !claimed && stored != nil:
			return stored, true, nil
		case !claimed:
			return nil, false, domain.ErrInFlight
		}
	}

	resp, err = s.backend.ReserveBook(ctx, userID, bookID)
	if err != nil {
		if claimed {
			if rerr := s.store.Release(context.WithoutCancel(ctx), idempotencyKey(key)); rerr != nil {
				log.Warn().Err(rerr).Str("key", key).Msg("idempotency release failed")
			}
		}
		return nil, false, err
	}

	if claimed {
		if cerr := s.store.Complete(context.WithoutCancel(ctx), idempotencyKey(key), resp, s.ttl); cerr != nil {
			log.Warn().Err(cerr).Str("key", key).Msg("idempotency store write failed")
		}
	}
	return resp, false, nil
}

func (s *ReservationCommands) Return(ctx context.Context, reservationID int64) (json.RawMessage, error) {
	return s.backend.ReturnBook(ctx, reservationID)
}

func (s *ReservationCommands) Delete(ctx context.Context, reservationID int64) (json.RawMessage, error) {
	return s.backend.DeleteReservation(ctx, reservationID)
}

func idempotencyKey(k string) string {
	return fmt.Sprintf("idem:reserve:%s", k)
}
