// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"library_gateway/internal/app"
	"library_gateway/internal/domain"
)

type Handlers struct {
	Views    *app.ReservationViews
	Commands *app.ReservationCommands
	Users    domain.UserDirectory
	Books    domain.Catalog
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers) {
	// timeouts apply after routing so the route pattern is settled before the handler runs
	s.mux.Group(func(r chi.Router) {
		if s.timeout > 0 {
			r.Use(Timeout(s.timeout))
		}
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

		r.Get("/reservations", h.listReservations)
		r.Post("/reservations", h.createReservation)
		r.Post("/reservations/{id}/return", forwardID(h.Commands.Return))
		r.Delete("/reservations/{id}", forwardID(h.Commands.Delete))

		r.Get("/users", forwardList(h.Users.ListUsers))
		r.Post("/users", forwardBody(h.Users.CreateUser))
		r.Get("/users/{id}", forwardID(h.Users.GetUser))
		r.Put("/users/{id}", forwardIDBody(h.Users.UpdateUser))
		r.Delete("/users/{id}", forwardID(h.Users.DeleteUser))

		r.Get("/books", forwardList(h.Books.ListBooks))
		r.Post("/books", forwardBody(h.Books.CreateBook))
		r.Get("/books/{id}", forwardID(h.Books.GetBook))
		r.Put("/books/{id}", forwardIDBody(h.Books.UpdateBook))
		r.Delete("/books/{id}", forwardID(h.Books.DeleteBook))

		r.Get("/categories", forwardList(h.Books.ListCategories))
		r.Post("/categories", forwardBody(h.Books.CreateCategory))
		r.Get("/categories/{id}", forwardID(h.Books.GetCategory))
		r.Put("/categories/{id}", forwardIDBody(h.Books.UpdateCategory))
		r.Delete("/categories/{id}", forwardID(h.Books.DeleteCategory))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// writeRaw relays a backend body as-is.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write backend response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body, nil
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag, or "*".
func etagMatches(header, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || (tag != "" && strings.TrimPrefix(tag, "W/") == want) {
			return true
		}
	}
	return false
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeBody reads an optional JSON object body; an empty body is an empty object.
func decodeBody(r *http.Request) (map[string]any, error) {
	var m map[string]any
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

/********** reservations **********/

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	records, err := h.Views.ListReservationsView(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("reservation listing failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	etag, body, err := calcETagAndBody(domain.ReservationsView{Reservations: records})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal reservations view")
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	// If client already has this version, short-circuit.
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReservations body")
	}
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id and book_id must be positive integers")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	resp, replayed, err := h.Commands.Reserve(r.Context(), key, int64(req.UserID), int64(req.BookID))
	if errors.Is(err, domain.ErrInFlight) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("user_id", int64(req.UserID)).Int64("book_id", int64(req.BookID)).Msg("reserve failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeRaw(w, http.StatusOK, resp)
}

/********** 1:1 forwarding **********/

type (
	listFn   func(ctx context.Context) (json.RawMessage, error)
	idFn     func(ctx context.Context, id int64) (json.RawMessage, error)
	bodyFn   func(ctx context.Context, payload map[string]any) (json.RawMessage, error)
	idBodyFn func(ctx context.Context, id int64, payload map[string]any) (json.RawMessage, error)
)

func relay(w http.ResponseWriter, r *http.Request, resp json.RawMessage, err error) {
	if err != nil {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("backend call failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, resp)
}

func forwardList(fn listFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r.Context())
		relay(w, r, resp, err)
	}
}

func forwardID(fn idFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		resp, err := fn(r.Context(), id)
		relay(w, r, resp, err)
	}
}

func forwardBody(fn bodyFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodeBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON object")
			return
		}
		resp, err := fn(r.Context(), payload)
		relay(w, r, resp, err)
	}
}

func forwardIDBody(fn idBodyFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		payload, err := decodeBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON object")
			return
		}
		resp, err := fn(r.Context(), id, payload)
		relay(w, r, resp, err)
	}
}
