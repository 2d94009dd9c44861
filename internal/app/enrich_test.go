package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"library_gateway/internal/app"
)

func TestEnrich_IsolatesFailures(t *testing.T) {
	fetch := func(ctx context.Context, id int64) (string, error) {
		switch id {
		case 2:
			return "", errors.New("boom")
		case 3:
			panic("bad payload")
		}
		return "name-" + string(rune('0'+id)), nil
	}

	got, err := app.Enrich[string](context.Background(), "user", []int64{1, 2, 3, 4}, 2, fetch)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("every id must settle, got %d entries", len(got))
	}
	if v, ok := got.Get(1); !ok || v != "name-1" {
		t.Fatalf("id 1: %q %v", v, ok)
	}
	if v, ok := got.Get(4); !ok || v != "name-4" {
		t.Fatalf("id 4: %q %v", v, ok)
	}
	for _, id := range []int64{2, 3} {
		if _, ok := got.Get(id); ok {
			t.Fatalf("id %d should be absent", id)
		}
		if r := got[id]; r.ID != id || r.Found {
			t.Fatalf("id %d: unexpected result %+v", id, r)
		}
	}
	if _, ok := got.Get(99); ok {
		t.Fatalf("unknown id must be absent")
	}
}

func TestEnrich_WaitsForAllAndBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	fetch := func(ctx context.Context, id int64) (int64, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Duration(id) * 5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return id * 10, nil
	}

	ids := []int64{1, 2, 3, 4, 5, 6}
	got, err := app.Enrich[int64](context.Background(), "book", ids, 3, fetch)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if atomic.LoadInt32(&inFlight) != 0 {
		t.Fatalf("Enrich returned before every lookup settled")
	}
	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Fatalf("concurrency limit exceeded: peak %d", p)
	}
	for _, id := range ids {
		if v, ok := got.Get(id); !ok || v != id*10 {
			t.Fatalf("id %d: %d %v", id, v, ok)
		}
	}
}

func TestEnrich_NoIDs(t *testing.T) {
	called := false
	got, err := app.Enrich[string](context.Background(), "user", nil, 4, func(ctx context.Context, id int64) (string, error) {
		called = true
		return "", nil
	})
	if err != nil || len(got) != 0 || called {
		t.Fatalf("unexpected: %v %v %v", got, err, called)
	}
}
