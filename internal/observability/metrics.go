package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	HealthStatus    prometheus.Gauge

	// Recorded health check as last seen by a page render
	Verdict     prometheus.Gauge
	RecordAge   prometheus.Gauge
	FetchErrors *prometheus.CounterVec
	Reloads     *prometheus.CounterVec

	registry *prometheus.Registry
	handler  http.Handler
}

// NewMetrics creates the collectors and registers them on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_health_status",
				Help: "Application health status (1 = healthy, 0 = unhealthy)",
			},
		),
		Verdict: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "healthcheck_verdict",
				Help: "Verdict of the last rendered health check (1 = PASS, 0 = FAIL)",
			},
		),
		RecordAge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "healthcheck_age_seconds",
				Help: "Age of the last fetched health check record in seconds",
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcheck_fetch_errors_total",
				Help: "Total number of failed health check fetches",
			},
			[]string{"driver"},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcheck_file_reloads_total",
				Help: "Total number of health check file reloads by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.ResponseSize,
		m.HealthStatus,
		m.Verdict,
		m.RecordAge,
		m.FetchErrors,
		m.Reloads,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	return m
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration, responseSize int64) {
	status := strconv.Itoa(statusCode)

	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(responseSize))
}

// RecordVerdict stores the outcome of one page render
func (m *Metrics) RecordVerdict(healthy bool, age time.Duration) {
	if healthy {
		m.Verdict.Set(1)
	} else {
		m.Verdict.Set(0)
	}
	m.RecordAge.Set(age.Seconds())
}

func (m *Metrics) RecordFetchError(driver string) {
	m.FetchErrors.WithLabelValues(driver).Inc()
}

// RecordReload counts a hot reload of the file store
func (m *Metrics) RecordReload(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Reloads.WithLabelValues(result).Inc()
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.HealthStatus.Set(1)
	} else {
		m.HealthStatus.Set(0)
	}
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
