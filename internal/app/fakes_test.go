package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"library_gateway/internal/domain"
)

// ---- fakes ----

type fakeReservations struct {
	list    json.RawMessage
	listErr error
}

func (f *fakeReservations) ListReservations(ctx context.Context) (json.RawMessage, error) {
	return f.list, f.listErr
}
func (f *fakeReservations) ReserveBook(ctx context.Context, userID, bookID int64) (json.RawMessage, error) {
	return json.RawMessage(`{"reservation_id":1}`), nil
}
func (f *fakeReservations) ReturnBook(ctx context.Context, id int64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (f *fakeReservations) DeleteReservation(ctx context.Context, id int64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// fakeUsers answers GetUser from payloads; ids listed in fail return an error.
type fakeUsers struct {
	mu       sync.Mutex
	payloads map[int64]string
	fail     map[int64]bool
	delay    time.Duration
	calls    map[int64]int
}

func (f *fakeUsers) GetUser(ctx context.Context, id int64) (json.RawMessage, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[int64]int{}
	}
	f.calls[id]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[id] {
		return nil, errors.New("user-service: transport closed")
	}
	p, ok := f.payloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return json.RawMessage(p), nil
}
func (f *fakeUsers) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}
func (f *fakeUsers) ListUsers(ctx context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeUsers) CreateUser(ctx context.Context, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeUsers) UpdateUser(ctx context.Context, id int64, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeUsers) DeleteUser(ctx context.Context, id int64) (json.RawMessage, error) { return nil, nil }

type fakeCatalog struct {
	mu       sync.Mutex
	payloads map[int64]string
	fail     map[int64]bool
	panics   map[int64]bool
	calls    int
}

func (f *fakeCatalog) GetBook(ctx context.Context, id int64) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panics[id] {
		panic("book decoder exploded")
	}
	if f.fail[id] {
		return nil, errors.New("book-service: deadline exceeded")
	}
	p, ok := f.payloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return json.RawMessage(p), nil
}
func (f *fakeCatalog) ListBooks(ctx context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeCatalog) CreateBook(ctx context.Context, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) UpdateBook(ctx context.Context, id int64, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) DeleteBook(ctx context.Context, id int64) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) GetCategory(ctx context.Context, id int64) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) ListCategories(ctx context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeCatalog) CreateCategory(ctx context.Context, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) UpdateCategory(ctx context.Context, id int64, p map[string]any) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCatalog) DeleteCategory(ctx context.Context, id int64) (json.RawMessage, error) {
	return nil, nil
}
