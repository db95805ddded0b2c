package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spitr_rate_limiter_requests_total",
			Help: "Requests let through by the rate limiter",
		},
		[]string{"endpoint"},
	)
	rateLimitBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spitr_rate_limiter_blocked_total",
			Help: "Requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spitr_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spitr_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	attacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spitr_attacks_total",
			Help: "Attacks by outcome",
		},
		[]string{"outcome"},
	)
	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spitr_transfers_total",
			Help: "Transfers by currency and whether a cap penalty applied",
		},
		[]string{"currency", "penalized"},
	)
)

func init() {
	prometheus.MustRegister(rateLimitRequests, rateLimitBlocked, httpRequests, httpDuration, attacksTotal, transfersTotal)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
