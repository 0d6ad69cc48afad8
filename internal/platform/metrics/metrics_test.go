package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "storepulse/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMount_ServesRegisteredMetrics(t *testing.T) {
	t.Parallel()
	reg := New()
	c := reg.Factory().NewCounter(prometheus.CounterOpts{Namespace: Namespace, Name: "probe_total", Help: "probe"})
	c.Add(3)

	r := phttp.AdaptChi(chi.NewRouter())
	reg.Mount(r, "/metrics", true)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"storepulse_probe_total 3", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in\n%s", want, body)
		}
	}
}

func TestMount_Disabled(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	NewBare().Mount(r, "/metrics", false)
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestHTTP_CountsByRoutePattern(t *testing.T) {
	t.Parallel()
	reg := NewBare()
	m := chi.NewRouter()
	m.Use(reg.HTTP())
	m.Get("/api/v1/reports/{report_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	m.Post("/api/v1/reports/trigger", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, p := range []string{"/api/v1/reports/a", "/api/v1/reports/b"} {
		m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/reports/trigger", nil))

	want := `
# HELP storepulse_http_requests_total HTTP requests by route, method and status.
# TYPE storepulse_http_requests_total counter
storepulse_http_requests_total{method="GET",route="/api/v1/reports/{report_id}",status="404"} 2
storepulse_http_requests_total{method="POST",route="/api/v1/reports/trigger",status="200"} 1
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(want), "storepulse_http_requests_total"); err != nil {
		t.Fatal(err)
	}
}
