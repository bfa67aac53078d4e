package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collectors, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "greenledger_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "greenledger_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestObserveStatement(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveStatement("ok", 3, 20*time.Millisecond)
	metrics.ObserveStatement("error", 0, time.Millisecond)

	body := scrape(t, metrics)
	for _, want := range []string{
		`greenledger_statement_builds_total{result="ok"} 1`,
		`greenledger_statement_builds_total{result="error"} 1`,
		"greenledger_statement_lines_count 1",
		"greenledger_statement_lines_sum 3",
		"greenledger_statement_build_seconds_count 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveStatement("ok", 1, time.Millisecond)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
func TestRegistererSharesPrivateRegistry(t *testing.T) {
	metrics := NewMetrics()
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "greenledger_extra_total", Help: "extra"})
	if err := metrics.Registerer().Register(extra); err != nil {
		t.Fatalf("register: %v", err)
	}
	extra.Inc()

	if body := scrape(t, metrics); !strings.Contains(body, "greenledger_extra_total 1") {
		t.Fatalf("expected collector on the private registry, got: %s", body)
	}

	var unset *Metrics
	if unset.Registerer() != prometheus.DefaultRegisterer {
		t.Fatal("expected nil metrics to fall back to the default registerer")
	}
}
