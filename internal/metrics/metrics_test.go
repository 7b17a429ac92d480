package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAllocation(t *testing.T) {
	m := New()
	m.ObserveAllocation("GENERATE", "success", 12, 20*time.Millisecond)
	m.ObserveAllocation("GENERATE", "no_rooms", 0, time.Millisecond)

	if got := testutil.ToFloat64(m.allocationRuns.WithLabelValues("GENERATE", "success")); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(m.studentsAllocated); got != 12 {
		t.Fatalf("expected 12 allocated, got %v", got)
	}
	m.SetShortfall(4)
	if got := testutil.ToFloat64(m.lastShortfall); got != 4 {
		t.Fatalf("expected shortfall gauge 4, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAllocation("GENERATE", "success", 1, time.Second)
	m.ObserveUpload("roster", 1, 1)
	m.SetShortfall(2)
	m.ObserveLogin("ADMIN", true)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/admin/rooms/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/rooms/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `exam_http_requests_total{method="GET",route="/api/admin/rooms/",status="200"} 1`) {
		t.Fatalf("expected request counter in output:\n%s", body)
	}
}
