package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "storepulse/internal/platform/errors"
	pnet "storepulse/internal/platform/net"
	phttp "storepulse/internal/platform/net/http"
)

func reqWithID(method, path, rid string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(pnet.WithRequest(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestHandle_Responses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		resp     phttp.Response
		wantCode int
		wantErr  perr.ErrorCode
		wantData bool
	}{
		{name: "ok", resp: phttp.OK(map[string]string{"status": "Running"}), wantCode: 200, wantData: true},
		{name: "accepted", resp: phttp.Accepted(map[string]string{"report_id": "r1"}), wantCode: 202, wantData: true},
		{name: "zero status", resp: phttp.Response{Body: "x"}, wantCode: 200, wantData: true},
		{name: "not found", resp: phttp.Error(perr.NotFoundf("report not found")), wantCode: 404, wantErr: perr.ErrorCodeNotFound},
		{name: "invalid id", resp: phttp.Error(perr.InvalidArgf("bad id")), wantCode: 422, wantErr: perr.ErrorCodeInvalidArgument},
		{name: "queue full", resp: phttp.Error(perr.Unavailablef("queue full")), wantCode: 503, wantErr: perr.ErrorCodeUnavailable},
		{name: "foreign error", resp: phttp.Error(errors.New("disk")), wantCode: 500, wantErr: perr.ErrorCodeUnknown},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			phttp.Handle(func(*http.Request) phttp.Response { return tc.resp })(rec, reqWithID("GET", "/x", "rid-1"))
			if rec.Code != tc.wantCode {
				t.Fatalf("code=%d want %d", rec.Code, tc.wantCode)
			}
			env := decode(t, rec)
			if env.StatusCode != tc.wantCode || env.RequestID != "rid-1" {
				t.Fatalf("envelope %+v", env)
			}
			if env.Code != tc.wantErr {
				t.Fatalf("code=%v want %v", env.Code, tc.wantErr)
			}
			if (env.Data != nil) != tc.wantData {
				t.Fatalf("data=%v", env.Data)
			}
			if !tc.wantData && env.Error == "" {
				t.Fatalf("error message missing")
			}
		})
	}
}

func TestHandle_HeadersAndAttachment(t *testing.T) {
	t.Parallel()
	body := []byte("store_id,uptime_last_hour\ns1,60.00\n")
	h := phttp.Handle(func(*http.Request) phttp.Response {
		resp := phttp.File(phttp.Attachment{Filename: "report_r1.csv", ContentType: "text/csv", Body: body})
		resp.Header = http.Header{"X-Report-Status": []string{"Complete"}}
		return resp
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/reports/r1", nil))

	if rec.Code != 200 || rec.Body.String() != string(body) {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=report_r1.csv` {
		t.Fatalf("disposition=%q", got)
	}
	if rec.Header().Get("Content-Type") != "text/csv" || rec.Header().Get("X-Report-Status") != "Complete" {
		t.Fatalf("headers=%v", rec.Header())
	}

	rec = httptest.NewRecorder()
	phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.File(phttp.Attachment{Body: []byte{1}})
	})(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Header().Get("Content-Type") != "application/octet-stream" || rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("defaults=%v", rec.Header())
	}
}

func TestRespondError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	phttp.RespondError(rec, reqWithID("GET", "/", "rid-9"), perr.Conflictf("job already terminal"))
	env := decode(t, rec)
	if rec.Code != http.StatusConflict || env.Code != perr.ErrorCodeConflict || env.RequestID != "rid-9" {
		t.Fatalf("got %d %+v", rec.Code, env)
	}
	if rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
}
