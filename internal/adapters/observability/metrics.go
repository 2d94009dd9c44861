package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "backend_requests_total", Help: "Backend RPC calls."},
		[]string{"service", "method", "status"},
	)
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway", Name: "backend_request_duration_seconds",
			Help:    "Backend RPC duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)
	EnrichmentLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "enrichment_lookups_total", Help: "Settled enrichment lookups."},
		[]string{"kind", "outcome"}, // outcome: resolved|absent
	)
	EnrichmentBatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "enrichment_batch_failures_total", Help: "Enrichment batches that failed as a whole."},
		[]string{"kind"},
	)
	IdempotencyEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gateway", Name: "idempotency_events_total", Help: "Idempotency-Key store events."},
		[]string{"event"}, // event: claim|in_flight|hit|complete|release
	)
)

// Serve exposes reg on a dedicated listener. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, BackendRequests, BackendLatency,
		EnrichmentLookups, EnrichmentBatchFailures, IdempotencyEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveBackend records one RPC. status is the HTTP status, or 0 when no response arrived.
func ObserveBackend(service, method string, status int, dur time.Duration) {
	BackendRequests.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	BackendLatency.WithLabelValues(service, method).Observe(dur.Seconds())
}

func ObserveEnrichment(kind, outcome string) { // outcome: resolved|absent
	EnrichmentLookups.WithLabelValues(kind, outcome).Inc()
}

func ObserveBatchFailure(kind string) {
	EnrichmentBatchFailures.WithLabelValues(kind).Inc()
}

func ObserveIdempotency(event string) {
	IdempotencyEvents.WithLabelValues(event).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
