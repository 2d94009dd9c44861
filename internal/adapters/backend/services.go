package backend

import (
	"context"
	"encoding/json"
	"maps"

	"library_gateway/internal/domain"
)

var (
	_ domain.UserDirectory      = (*Users)(nil)
	_ domain.Catalog            = (*Catalog)(nil)
	_ domain.ReservationBackend = (*Reservations)(nil)
)

// withID copies payload and sets key to id, so a path id always wins over the body.
func withID(payload map[string]any, key string, id int64) map[string]any {
	out := make(map[string]any, len(payload)+1)
	maps.Copy(out, payload)
	out[key] = id
	return out
}

func orEmpty(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	return payload
}

/********** user directory **********/

type Users struct{ c *Client }

func NewUsers(c *Client) *Users { return &Users{c: c} }

func (u *Users) GetUser(ctx context.Context, id int64) (json.RawMessage, error) {
	return u.c.Call(ctx, "GetUser", map[string]any{"user_id": id})
}

func (u *Users) ListUsers(ctx context.Context) (json.RawMessage, error) {
	return u.c.Call(ctx, "GetAllUsers", map[string]any{})
}

func (u *Users) CreateUser(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	return u.c.Call(ctx, "CreateUser", orEmpty(payload))
}

func (u *Users) UpdateUser(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error) {
	return u.c.Call(ctx, "UpdateUser", withID(payload, "user_id", id))
}

func (u *Users) DeleteUser(ctx context.Context, id int64) (json.RawMessage, error) {
	return u.c.Call(ctx, "DeleteUser", map[string]any{"user_id": id})
}

/********** catalog **********/

type Catalog struct{ c *Client }

func NewCatalog(c *Client) *Catalog { return &Catalog{c: c} }

func (b *Catalog) GetBook(ctx context.Context, id int64) (json.RawMessage, error) {
	return b.c.Call(ctx, "GetBook", map[string]any{"book_id": id})
}

func (b *Catalog) ListBooks(ctx context.Context) (json.RawMessage, error) {
	return b.c.Call(ctx, "GetAllBooks", map[string]any{})
}

func (b *Catalog) CreateBook(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	return b.c.Call(ctx, "AddBook", orEmpty(payload))
}

func (b *Catalog) UpdateBook(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error) {
	return b.c.Call(ctx, "UpdateBook", withID(payload, "book_id", id))
}

func (b *Catalog) DeleteBook(ctx context.Context, id int64) (json.RawMessage, error) {
	return b.c.Call(ctx, "DeleteBook", map[string]any{"book_id": id})
}

func (b *Catalog) GetCategory(ctx context.Context, id int64) (json.RawMessage, error) {
	return b.c.Call(ctx, "GetCategory", map[string]any{"category_id": id})
}

func (b *Catalog) ListCategories(ctx context.Context) (json.RawMessage, error) {
	return b.c.Call(ctx, "GetAllCategories", map[string]any{})
}

func (b *Catalog) CreateCategory(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	return b.c.Call(ctx, "AddCategory", orEmpty(payload))
}

func (b *Catalog) UpdateCategory(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error) {
	return b.c.Call(ctx, "UpdateCategory", withID(payload, "category_id", id))
}

func (b *Catalog) DeleteCategory(ctx context.Context, id int64) (json.RawMessage, error) {
	return b.c.Call(ctx, "DeleteCategory", map[string]any{"category_id": id})
}

/********** reservations **********/

type Reservations struct{ c *Client }

func NewReservations(c *Client) *Reservations { return &Reservations{c: c} }

func (r *Reservations) ListReservations(ctx context.Context) (json.RawMessage, error) {
	return r.c.Call(ctx, "GetAllReservations", map[string]any{})
}

func (r *Reservations) ReserveBook(ctx context.Context, userID, bookID int64) (json.RawMessage, error) {
	return r.c.Call(ctx, "ReserveBook", map[string]any{"user_id": userID, "book_id": bookID})
}

// The reservation service spells this method "Returnbook".
func (r *Reservations) ReturnBook(ctx context.Context, reservationID int64) (json.RawMessage, error) {
	return r.c.Call(ctx, "Returnbook", map[string]any{"reservation_id": reservationID})
}

func (r *Reservations) DeleteReservation(ctx context.Context, reservationID int64) (json.RawMessage, error) {
	return r.c.Call(ctx, "DeleteReservation", map[string]any{"reservation_id": reservationID})
}
