package app_test

import (
	"encoding/json"
	"testing"

	"library_gateway/internal/app"
	"library_gateway/internal/domain"
)

func TestNormalizeReservation_SpellingsAgree(t *testing.T) {
	want := domain.ReservationRecord{ReservationID: 3, UserID: 7, UserName: "Ann", BookID: 9, BookName: "Go in Action"}

	inputs := []string{
		`{"reservation_id":3,"user_id":7,"user_name":"Ann","book_id":9,"book_name":"Go in Action"}`,
		`{"reservationId":3,"userId":7,"userName":"Ann","bookId":9,"bookName":"Go in Action"}`,
		`{"ReservationId":3,"UserId":7,"UserName":"Ann","BookId":9,"BookName":"Go in Action"}`,
		`{"Reservation_id":3,"User_id":7,"User_name":"Ann","Book_id":9,"Book_name":"Go in Action"}`,
		`{"ReservationID":"3","UserID":"7","UserName":"Ann","BookID":"9","BookName":"Go in Action"}`,
	}
	for _, in := range inputs {
		var raw map[string]any
		if err := json.Unmarshal([]byte(in), &raw); err != nil {
			t.Fatalf("bad fixture %s: %v", in, err)
		}
		if got := app.NormalizeReservation(raw); got != want {
			t.Fatalf("%s\n got %+v\nwant %+v", in, got, want)
		}
	}
}

func TestNormalizeReservation_Defaults(t *testing.T) {
	zero := domain.ReservationRecord{}
	if got := app.NormalizeReservation(nil); got != zero {
		t.Fatalf("nil: %+v", got)
	}
	if got := app.NormalizeReservation(map[string]any{}); got != zero {
		t.Fatalf("{}: %+v", got)
	}
	// null values and wrong types fall through to defaults
	got := app.NormalizeReservation(map[string]any{"user_name": nil, "book_id": true, "reservation_id": "x"})
	if got != zero {
		t.Fatalf("junk: %+v", got)
	}
}

func TestNormalizeReservation_FirstPresentWins(t *testing.T) {
	got := app.NormalizeReservation(map[string]any{
		"user_id":  nil, // present but null: skipped
		"userId":   float64(5),
		"UserId":   float64(6),
		"BookName": "later",
		"bookName": "earlier",
	})
	if got.UserID != 5 || got.BookName != "earlier" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestNormalizeReservation_IntegralFloats(t *testing.T) {
	got := app.NormalizeReservation(map[string]any{
		"reservation_id": json.Number("3.0"),
		"user_id":        "7.0",
		"book_id":        json.Number("9e0"),
	})
	if got.ReservationID != 3 || got.UserID != 7 || got.BookID != 9 {
		t.Fatalf("unexpected %+v", got)
	}

	// fractional ids are not ids; the next alias is tried
	got = app.NormalizeReservation(map[string]any{
		"user_id": json.Number("7.5"),
		"userId":  json.Number("8"),
		"book_id": "9.25",
	})
	if got.UserID != 8 || got.BookID != 0 {
		t.Fatalf("unexpected %+v", got)
	}
}
