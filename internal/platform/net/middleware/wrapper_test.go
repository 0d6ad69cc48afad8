package middleware_test

import (
	"compress/flate"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"
	pnet "storepulse/internal/platform/net"
	phttp "storepulse/internal/platform/net/http"
	"storepulse/internal/platform/net/middleware"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestRequestID_PropagatesToLoggerContext(t *testing.T) {
	t.Parallel()
	var seen, seenLog string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
		seenLog = logger.RequestID(r.Context())
	}), middleware.RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "rid-from-lb")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "rid-from-lb" || seenLog != "rid-from-lb" {
		t.Fatalf("seen=%q log=%q", seen, seenLog)
	}
	if rr.Header().Get("X-Request-Id") != "rid-from-lb" {
		t.Fatalf("response header=%q", rr.Header().Get("X-Request-Id"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rr.Header().Get("X-Request-Id") != seen {
		t.Fatalf("generated id=%q header=%q", seen, rr.Header().Get("X-Request-Id"))
	}
}

func TestRecoverJSON_Envelope(t *testing.T) {
	t.Parallel()
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("entity slot out of range")
	}), middleware.RequestID(), middleware.RecoverJSON)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "rid-panic")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("code=%d", rr.Code)
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Code != perr.ErrorCodePanic || env.RequestID != "rid-panic" || env.Error != "panic recovered" {
		t.Fatalf("envelope %+v", env)
	}
}

func TestCompress_CSVWhenAccepted(t *testing.T) {
	t.Parallel()
	h := middleware.Compress(flate.DefaultCompression)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, strings.Repeat("s1,100.00\n", 512))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("encoding=%q", rr.Header().Get("Content-Encoding"))
	}
}

func TestCORS_Defaults(t *testing.T) {
	t.Parallel()
	h := middleware.CORS(middleware.CORSOptions{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports/trigger", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected allow origin, headers=%v", rr.Header())
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("methods=%q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestDefaults_BundleRuns(t *testing.T) {
	t.Parallel()
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pnet.RequestID(r.Context()) == "" {
			t.Errorf("expected request id in context")
		}
		w.WriteHeader(http.StatusOK)
	}), middleware.Defaults()...)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Header().Get("Cache-Control") != "" {
		t.Fatalf("code=%d headers=%v", rr.Code, rr.Header())
	}
}

func TestNoCache(t *testing.T) {
	t.Parallel()
	h := middleware.NoCache()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports/x", nil))
	if !strings.Contains(rr.Header().Get("Cache-Control"), "no-store") {
		t.Fatalf("headers=%v", rr.Header())
	}
}

func TestHeartbeat(t *testing.T) {
	t.Parallel()
	h := middleware.Heartbeat("/ping")(http.NotFoundHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d", rr.Code)
	}
}
