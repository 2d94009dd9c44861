package domain

// ReservationRecord is the gateway's canonical reservation row. Empty names mean
// "not resolved yet", never "unknown user/book".
type ReservationRecord struct {
	ReservationID int64  `json:"reservation_id"`
	UserID        int64  `json:"user_id"`
	UserName      string `json:"user_name"`
	BookID        int64  `json:"book_id"`
	BookName      string `json:"book_name"`
}

type UserRecord struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type BookRecord struct {
	BookID   int64  `json:"book_id"`
	BookName string `json:"book_name"`
}

// LookupResult is the settled outcome of one enrichment attempt.
// Found=false is a valid terminal state.
type LookupResult[T any] struct {
	ID    int64
	Value T
	Found bool
}

// ReservationsView is the body of GET /reservations.
type ReservationsView struct {
	Reservations []ReservationRecord `json:"reservations"`
}
