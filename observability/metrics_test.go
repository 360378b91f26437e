package observability_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zeventbooks/eventgateway/observability"
)

func TestMetricsHandlerExposesRegisteredFamilies(t *testing.T) {
	m := observability.NewMetrics()
	m.RequestsTotal.WithLabelValues("/api/status", "200").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eventgateway_requests_total") {
		t.Fatalf("expected the requests_total family in the exposition output")
	}
}
