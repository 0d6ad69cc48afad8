// Package http serves the liveness, readiness and build info endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"storepulse/internal/core/version"
	"storepulse/internal/modkit/httpkit"

	"golang.org/x/sync/errgroup"
)

// Probe is one readiness dependency, a nil Ping means the backend is disabled
type Probe struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Probes      []Probe
	// ReportSink is the configured report destination (csv or clickhouse)
	ReportSink string
	// ReadyTimeout bounds all probes together, <=0 means 2s
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"storepulse-api"`
	Now     string `json:"now"     example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck is the outcome of one probe
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
	Millis int64  `json:"ms"     example:"3"`
}

// ReadyResponse summarizes readiness, served as 503 when Status is fail
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-09-03T13:05:00Z"`
}

// ServiceResponse describes the running process
type ServiceResponse struct {
	Name       string `json:"name"        example:"storepulse-api"`
	Started    string `json:"started"     example:"2025-09-03T13:00:00Z"`
	Uptime     int64  `json:"uptime"      example:"300"`
	ReportSink string `json:"report_sink" example:"csv"`
}

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Now:     stamp(h.now()),
	}, nil
}

// @Summary Readiness, pings every configured store
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	timeout := h.deps.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.deps.Probes))
	var g errgroup.Group
	for i, p := range h.deps.Probes {
		checks[i] = ReadyCheck{Name: p.Name, Status: "skipped"}
		if p.Ping == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := p.Ping(ctx)
			checks[i].Millis = time.Since(start).Milliseconds()
			checks[i].Status = "ok"
			if err != nil {
				checks[i].Status, checks[i].Error = "fail", err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := ReadyResponse{Status: "ok", Checks: checks, Now: stamp(h.now())}
	for _, c := range checks {
		if c.Status == "fail" {
			out.Status = "fail"
			return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
		}
	}
	return out, nil
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:       h.deps.ServiceName,
		Started:    stamp(h.deps.StartedAt),
		Uptime:     int64(h.now().Sub(h.deps.StartedAt) / time.Second),
		ReportSink: h.deps.ReportSink,
	}, nil
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
