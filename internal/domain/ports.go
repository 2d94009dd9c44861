package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Backend ports return the raw JSON body so forwarding routes can relay it verbatim;
// the app layer decodes what it needs.

type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (json.RawMessage, error)
	ListUsers(ctx context.Context) (json.RawMessage, error)
	CreateUser(ctx context.Context, payload map[string]any) (json.RawMessage, error)
	UpdateUser(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error)
	DeleteUser(ctx context.Context, id int64) (json.RawMessage, error)
}

type Catalog interface {
	GetBook(ctx context.Context, id int64) (json.RawMessage, error)
	ListBooks(ctx context.Context) (json.RawMessage, error)
	CreateBook(ctx context.Context, payload map[string]any) (json.RawMessage, error)
	UpdateBook(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error)
	DeleteBook(ctx context.Context, id int64) (json.RawMessage, error)

	GetCategory(ctx context.Context, id int64) (json.RawMessage, error)
	ListCategories(ctx context.Context) (json.RawMessage, error)
	CreateCategory(ctx context.Context, payload map[string]any) (json.RawMessage, error)
	UpdateCategory(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error)
	DeleteCategory(ctx context.Context, id int64) (json.RawMessage, error)
}

type ReservationBackend interface {
	ListReservations(ctx context.Context) (json.RawMessage, error)
	ReserveBook(ctx context.Context, userID, bookID int64) (json.RawMessage, error)
	ReturnBook(ctx context.Context, reservationID int64) (json.RawMessage, error)
	DeleteReservation(ctx context.Context, reservationID int64) (json.RawMessage, error)
}

// IdempotencyStore keeps backend responses for replayed create requests.
type IdempotencyStore interface {
	// Claim reserves key for one in-flight request. When key is already taken it
	// returns claimed=false with the stored response, or a nil response while the
	// first request is still in flight.
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, stored json.RawMessage, err error)
	// Complete replaces the claim with the response to replay.
	Complete(ctx context.Context, key string, v json.RawMessage, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
