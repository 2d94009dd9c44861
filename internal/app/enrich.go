package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"library_gateway/internal/domain"
)

// FetchFunc resolves a single id against one backend.
type FetchFunc[T any] func(ctx context.Context, id int64) (T, error)

// Lookup is the settled outcome table of one batch, keyed by id.
type Lookup[T any] map[int64]domain.LookupResult[T]

// Get returns the resolved value for id, if any.
func (l Lookup[T]) Get(id int64) (T, bool) {
	r, ok := l[id]
	if !ok || !r.Found {
		var zero T
		return zero, false
	}
	return r.Value, true
}

// Enrich fetches every id concurrently, at most limit at a time, and waits for all of
// them to settle. A failing id becomes an absent entry and never affects the others.
// The returned error is only about the batch itself (e.g. ctx done before every id
// could be scheduled); in that case no lookup table is returned.
func Enrich[T any](ctx context.Context, kind string, ids []int64, limit int, fetch FetchFunc[T]) (Lookup[T], error) {
	out := make(Lookup[T], len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	sem := semaphore.NewWeighted(int64(limit))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		batchErr error
	)

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			batchErr = fmt.Errorf("%s batch: acquire slot: %w", kind, err)
			break
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := settle(ctx, id, fetch)
			if err != nil {
				log.Debug().Str("kind", kind).Int64("id", id).Err(err).Msg("enrichment lookup failed")
			}
			mu.Lock()
			out[id] = res
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	if batchErr != nil {
		return nil, batchErr
	}
	return out, nil
}

// settle runs one fetch, turning errors and panics into an absent result.
func settle[T any](ctx context.Context, id int64, fetch FetchFunc[T]) (res domain.LookupResult[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.LookupResult[T]{ID: id}
			err = fmt.Errorf("lookup %d panicked: %v", id, r)
		}
	}()

	v, err := fetch(ctx, id)
	if err != nil {
		return domain.LookupResult[T]{ID: id}, err
	}
	return domain.LookupResult[T]{ID: id, Value: v, Found: true}, nil
}
