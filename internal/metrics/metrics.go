// Package metrics holds the Prometheus collectors the server exports on
// /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	allocationRuns     *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	studentsAllocated  prometheus.Counter
	lastShortfall      prometheus.Gauge
	rosterRows         *prometheus.CounterVec
	logins             *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers every collector plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		allocationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_allocation_runs_total",
			Help: "Allocation runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		allocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_allocation_duration_seconds",
			Help:    "Wall time of allocation runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		studentsAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_students_allocated_total",
			Help: "Seats handed out by committed runs.",
		}),
		lastShortfall: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exam_allocation_last_shortfall",
			Help: "Students left pending by the last committed run.",
		}),
		rosterRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_upload_rows_total",
			Help: "Uploaded CSV rows by file kind and outcome.",
		}, []string{"kind", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_logins_total",
			Help: "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.reg.MustRegister(
		m.allocationRuns, m.allocationDuration, m.studentsAllocated, m.lastShortfall,
		m.rosterRows, m.logins, m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveAllocation records one run.  outcome is "success" or a short
// failure reason.
func (m *Metrics) ObserveAllocation(mode, outcome string, allocated int, took time.Duration) {
	if m == nil {
		return
	}
	m.allocationRuns.WithLabelValues(mode, outcome).Inc()
	m.allocationDuration.WithLabelValues(mode).Observe(took.Seconds())
	if allocated > 0 {
		m.studentsAllocated.Add(float64(allocated))
	}
}

// SetShortfall records the shortfall of the last committed run.
func (m *Metrics) SetShortfall(n int) {
	if m == nil {
		return
	}
	m.lastShortfall.Set(float64(n))
}

// ObserveUpload records accepted and rejected rows of one upload.
func (m *Metrics) ObserveUpload(kind string, accepted, rejected int) {
	if m == nil {
		return
	}
	m.rosterRows.WithLabelValues(kind, "accepted").Add(float64(accepted))
	m.rosterRows.WithLabelValues(kind, "rejected").Add(float64(rejected))
}

// ObserveLogin records one login attempt.
func (m *Metrics) ObserveLogin(role string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}

// Middleware counts requests per matched route.  Unmatched paths share one
// label so arbitrary URLs cannot blow up cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
