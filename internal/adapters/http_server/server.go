package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Options configure the router. Zero RequestTimeout disables the handler timeout;
// empty AllowedOrigins disables CORS.
type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type Server struct {
	mux     *chi.Mux
	timeout time.Duration
}

func New(opt Options) *Server {
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Metrics)
	m.Use(Logger(log.Logger))
	if len(opt.AllowedOrigins) > 0 {
		// the browser UI is served from another origin
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins: opt.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "If-None-Match", "X-Request-Id"},
			ExposedHeaders: []string{"ETag", "Idempotent-Replayed", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	return &Server{mux: m, timeout: opt.RequestTimeout}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
