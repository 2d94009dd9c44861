package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"library_gateway/internal/adapters/backend"
	"library_gateway/internal/domain"
)

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()
	cl, err := backend.New("test", url, backend.Options{RPS: 100}) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_GetUser_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/GetUser" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(map[string]any{"user_id": in["user_id"], "name": "Ann"})
		}
	}))
	defer ts.Close()

	users := backend.NewUsers(newClient(t, ts.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := users.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var got struct {
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(raw, &got); err != nil || got.UserID != 7 || got.Name != "Ann" {
		t.Fatalf("unexpected payload: %s (%v)", raw, err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_WriteIsNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	res := backend.NewReservations(newClient(t, ts.URL))
	_, err := res.ReserveBook(context.Background(), 1, 2)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("write must be sent once, got %d calls", n)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusNotImplemented, domain.ErrMethodNotFound},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := newClient(t, ts.URL).Call(context.Background(), "GetBook", map[string]any{"book_id": 1})
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClient_ErrorBodySurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"user_id and book_id are required"}`)
	}))
	defer ts.Close()

	_, err := backend.NewReservations(newClient(t, ts.URL)).ReserveBook(context.Background(), 0, 0)
	if err == nil || err.Error() != "test.ReserveBook: bad status 400: user_id and book_id are required" {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestClient_NoContentIsEmptyObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	raw, err := backend.NewReservations(newClient(t, ts.URL)).DeleteReservation(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("expected {}, got %s", raw)
	}
}

func TestUpdate_PathIDWins(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer ts.Close()

	cat := backend.NewCatalog(newClient(t, ts.URL))
	if _, err := cat.UpdateBook(context.Background(), 9, map[string]any{"book_id": 1, "book_name": "X"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if body["book_id"] != float64(9) || body["book_name"] != "X" {
		t.Fatalf("unexpected forwarded body: %+v", body)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := backend.New("users", " ", backend.Options{}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
