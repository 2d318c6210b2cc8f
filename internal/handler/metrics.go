package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/ccalu/channelpulse/internal/youtube"
)

// Metrics holds the HTTP-layer Prometheus collectors. Pipeline counters
// (runs, channels, notifications, faults) live in internal/metrics so the
// services that produce them can record without importing this package.
var Metrics = struct {
	QuotaUnitsSpent   prometheus.GaugeFunc
	ActiveCredentials prometheus.GaugeFunc
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	DBPoolActive      prometheus.GaugeFunc
	DBPoolIdle        prometheus.GaugeFunc
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool, creds *youtube.CredentialPool) {
	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "channelpulse_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "channelpulse_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	if creds != nil {
		Metrics.QuotaUnitsSpent = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "channelpulse_quota_units_spent",
				Help: "Quota units charged since the pool was last reset.",
			},
			func() float64 {
				return float64(creds.TotalUnits())
			},
		)
		Metrics.ActiveCredentials = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "channelpulse_active_credentials",
				Help: "API keys currently neither suspended nor exhausted.",
			},
			func() float64 {
				return float64(creds.ActiveCount())
			},
		)
		prometheus.MustRegister(Metrics.QuotaUnitsSpent, Metrics.ActiveCredentials)
	}

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "channelpulse_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)
		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "channelpulse_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)
		prometheus.MustRegister(Metrics.DBPoolActive, Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/channels/"):
		return "/api/channels/:id"
	case strings.HasPrefix(path, "/api/notifications/rules/"):
		return "/api/notifications/rules/:id"
	case strings.HasPrefix(path, "/api/notifications/") && path != "/api/notifications/mark-all-seen":
		return "/api/notifications/:id"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
