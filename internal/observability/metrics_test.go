package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncRejected("match")
	m.SetBreakerState("tagger", "open")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveAPI("POST", "/api/recommendations", "200", 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/recommendations", "200", 30*time.Millisecond)
	m.IncRejected("match")
	m.SetBreakerState("tagger", "open")

	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("POST", "/api/recommendations", "200")); got != 2 {
		t.Fatalf("api requests=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.recommendRejected.WithLabelValues("match")); got != 1 {
		t.Fatalf("rejected=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("tagger")); got != 2 {
		t.Fatalf("breaker=%v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sb_api_requests_total") {
		t.Fatalf("unexpected exposition: %d", rec.Code)
	}
}
