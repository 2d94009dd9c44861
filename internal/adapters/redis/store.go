package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"library_gateway/internal/adapters/observability"
	"library_gateway/internal/domain"
)

var _ domain.IdempotencyStore = (*Store)(nil)

// inFlight marks a claimed key whose response is not known yet. Stored responses are
// always JSON, so it cannot collide with one.
const inFlight = "\x00in-flight"

// Store keeps replayable responses for Idempotency-Key requests.
type Store struct{ c *redis.Client }

func New(addr, pass string, db int) *Store {
	return &Store{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// Claim is a SET NX of the in-flight marker; the first caller for a key wins.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, json.RawMessage, error) {
	ok, err := s.c.SetNX(ctx, key, inFlight, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if ok {
		observability.ObserveIdempotency("claim")
		return true, nil, nil
	}

	v, err := s.c.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		// claim expired or released between the two calls
		observability.ObserveIdempotency("in_flight")
		return false, nil, nil
	case err != nil:
		return false, nil, err
	case string(v) == inFlight:
		observability.ObserveIdempotency("in_flight")
		return false, nil, nil
	}
	observability.ObserveIdempotency("hit")
	return false, json.RawMessage(v), nil
}

func (s *Store) Complete(ctx context.Context, key string, v json.RawMessage, ttl time.Duration) error {
	if err := s.c.Set(ctx, key, []byte(v), ttl).Err(); err != nil {
		return err
	}
	observability.ObserveIdempotency("complete")
	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.c.Del(ctx, key).Err(); err != nil {
		return err
	}
	observability.ObserveIdempotency("release")
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *Store) Close() error { return s.c.Close() }
