package app

import "library_gateway/internal/domain"

// Field selects which foreign key of a reservation is being resolved.
type Field string

const (
	FieldUser Field = "user"
	FieldBook Field = "book"
)

// PendingIDs returns the distinct positive ids of field whose name is still empty.
// Names already supplied by the reservation backend are trusted and not re-queried.
func PendingIDs(records []domain.ReservationRecord, field Field) []int64 {
	seen := make(map[int64]struct{}, len(records))
	out := make([]int64, 0, len(records))
	for _, r := range records {
		var id int64
		var name string
		switch field {
		case FieldUser:
			id, name = r.UserID, r.UserName
		case FieldBook:
			id, name = r.BookID, r.BookName
		default:
			return nil
		}
		if id <= 0 || name != "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
