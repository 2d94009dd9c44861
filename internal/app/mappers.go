package app

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"library_gateway/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Backends renamed fields between versions; first alias present wins.
var reservationAliases = map[string][]string{
	"reservation_id": {"reservation_id", "reservationId", "ReservationId", "Reservation_id", "ReservationID"},
	"user_id":        {"user_id", "userId", "UserId", "User_id", "UserID"},
	"user_name":      {"user_name", "userName", "UserName", "User_name"},
	"book_id":        {"book_id", "bookId", "BookId", "Book_id", "BookID"},
	"book_name":      {"book_name", "bookName", "BookName", "Book_name"},
}

// Collection field of the reservation listing. The reservation service names it after
// its proto message; later versions pluralised it.
var reservationListAliases = []string{"reservations", "Reservations", "Reservation", "reservation", "items", "data"}

var userAliases = map[string][]string{
	"user_id": {"user_id", "userId", "UserId", "user.user_id", "user.userId"},
	"name":    {"name", "user_name", "userName", "user.name", "user.user_name"},
}

var bookAliases = map[string][]string{
	"book_id":   {"book.book_id", "book.bookId", "book_id", "bookId"},
	"book_name": {"book.book_name", "book.name", "book_name", "bookName", "name"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
// The bool separates "absent" from "present but null".
func lookupAny(m map[string]any, path string) (any, bool) {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// firstStr returns the first present, non-null string among paths.
func firstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := firstValue(m, p).(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmpty is firstStr skipping empty strings; used for enrichment payloads where
// an empty name is as good as none.
func firstNonEmpty(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := firstValue(m, p).(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstValue(m map[string]any, path string) any {
	v, ok := lookupAny(m, path)
	if !ok || v == nil {
		return nil
	}
	return v
}

// firstInt64Flexible: int64 from several paths (float64/int/json.Number/string).
func firstInt64Flexible(m map[string]any, paths ...string) int64 {
	for _, k := range paths {
		switch v := firstValue(m, k).(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		case json.Number:
			if n, ok := parseIntegral(v.String()); ok {
				return n
			}
		case string:
			// int64 fields arrive as strings from proto3 JSON mappings.
			if n, ok := parseIntegral(strings.TrimSpace(v)); ok {
				return n
			}
		}
	}
	return 0
}

// parseIntegral accepts "7" as well as "7.0" or "7e0"; Python encoders emit floats
// for ids. Fractional values are rejected.
func parseIntegral(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// decodeAny decodes a backend body keeping numbers exact. Invalid or empty input
// yields nil.
func decodeAny(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func decodeObject(raw json.RawMessage) map[string]any {
	m, _ := decodeAny(raw).(map[string]any)
	return m
}

/********** reservation mapper **********/

// NormalizeReservation maps one raw reservation into the canonical record. It is total:
// nil or unexpected shapes yield the zero record.
func NormalizeReservation(raw map[string]any) domain.ReservationRecord {
	if raw == nil {
		return domain.ReservationRecord{}
	}
	return domain.ReservationRecord{
		ReservationID: firstInt64Flexible(raw, reservationAliases["reservation_id"]...),
		UserID:        firstInt64Flexible(raw, reservationAliases["user_id"]...),
		UserName:      firstStr(raw, reservationAliases["user_name"]...),
		BookID:        firstInt64Flexible(raw, reservationAliases["book_id"]...),
		BookName:      firstStr(raw, reservationAliases["book_name"]...),
	}
}

// reservationItems finds the list-shaped part of a listing payload. ok=false means
// no usable collection was present.
func reservationItems(payload any) ([]any, bool) {
	switch p := payload.(type) {
	case []any:
		return p, true
	case map[string]any:
		for _, k := range reservationListAliases {
			if arr, ok := p[k].([]any); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

// mapReservations normalizes every item; non-object items normalize to the zero record.
func mapReservations(items []any) []domain.ReservationRecord {
	out := make([]domain.ReservationRecord, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		out = append(out, NormalizeReservation(m))
	}
	return out
}

/********** user / book mappers **********/

func mapUser(id int64, payload map[string]any) domain.UserRecord {
	u := domain.UserRecord{UserID: id, Name: firstNonEmpty(payload, userAliases["name"]...)}
	if v := firstInt64Flexible(payload, userAliases["user_id"]...); v > 0 {
		u.UserID = v
	}
	return u
}

func mapBook(id int64, payload map[string]any) domain.BookRecord {
	b := domain.BookRecord{BookID: id, BookName: firstNonEmpty(payload, bookAliases["book_name"]...)}
	if v := firstInt64Flexible(payload, bookAliases["book_id"]...); v > 0 {
		b.BookID = v
	}
	return b
}
