package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storepulse/internal/modkit/httpkit"
	phttp "storepulse/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func ping(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func get(t *testing.T, d Deps, path string, wantStatus int, out any) {
	t.Helper()
	root := phttp.AdaptChi(chi.NewRouter())
	root.Route("/meta", func(r httpkit.Router) { Register(r, d) })

	rec := httptest.NewRecorder()
	root.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	if rec.Code != wantStatus {
		t.Fatalf("%s status=%d body=%s", path, rec.Code, rec.Body)
	}
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode %s: %v", env.Data, err)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()
	refused := errors.New("connection refused")
	tests := []struct {
		name   string
		pg, ch func(context.Context) error
		code   int
		want   string
		states [2]string
	}{
		{name: "both up", pg: ping(nil), ch: ping(nil), code: 200, want: "ok", states: [2]string{"ok", "ok"}},
		{name: "clickhouse disabled", pg: ping(nil), code: 200, want: "ok", states: [2]string{"ok", "skipped"}},
		{name: "pg down", pg: ping(refused), ch: ping(nil), code: 503, want: "fail", states: [2]string{"fail", "ok"}},
		{name: "clickhouse down", pg: ping(nil), ch: ping(refused), code: 503, want: "fail", states: [2]string{"ok", "fail"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Deps{
				Probes:       []Probe{{Name: "pg", Ping: tc.pg}, {Name: "ch", Ping: tc.ch}},
				ReadyTimeout: time.Second,
			}
			var got ReadyResponse
			get(t, d, "/meta/ready", tc.code, &got)
			if got.Status != tc.want || len(got.Checks) != 2 {
				t.Fatalf("ready=%+v", got)
			}
			for i, c := range got.Checks {
				if c.Status != tc.states[i] {
					t.Fatalf("checks=%+v", got.Checks)
				}
				if c.Status == "fail" && c.Error != "connection refused" {
					t.Fatalf("error not surfaced: %+v", c)
				}
			}
		})
	}
}

func TestReadyTimeoutBoundsSlowProbe(t *testing.T) {
	t.Parallel()
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	d := Deps{Probes: []Probe{{Name: "pg", Ping: slow}}, ReadyTimeout: 20 * time.Millisecond}

	var got ReadyResponse
	get(t, d, "/meta/ready", 503, &got)
	if got.Checks[0].Error != context.DeadlineExceeded.Error() {
		t.Fatalf("check=%+v", got.Checks[0])
	}
}

func TestHealthAndService(t *testing.T) {
	t.Parallel()
	started := time.Now().Add(-time.Minute)
	d := Deps{ServiceName: "storepulse-api", StartedAt: started, ReportSink: "clickhouse"}

	var h HealthResponse
	get(t, d, "/meta/health", 200, &h)
	if !h.OK || h.Service != "storepulse-api" || h.Now == "" {
		t.Fatalf("health=%+v", h)
	}

	var s ServiceResponse
	get(t, d, "/meta/service", 200, &s)
	if s.Name != "storepulse-api" || s.Uptime < 60 || s.ReportSink != "clickhouse" || s.Started != stamp(started) {
		t.Fatalf("service=%+v", s)
	}

	var v struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	get(t, d, "/meta/version", 200, &v)
	if v.Service != "storepulse-api" || v.Version == "" {
		t.Fatalf("version=%+v", v)
	}
}
