// Package module mounts the meta endpoints under /meta
package module

import (
	"context"
	"time"

	"storepulse/internal/core/version"
	"storepulse/internal/modkit"
	"storepulse/internal/modkit/httpkit"
	"storepulse/internal/platform/store"
	str "storepulse/internal/platform/strings"

	metahttp "storepulse/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	built     modkit.Built
	sink      string
	startedAt time.Time
}

// New constructs the meta module, sink is reported by /meta/service
func New(deps modkit.Deps, sink string, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{deps: deps, built: b, sink: sink, startedAt: time.Now()}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName:  version.Info().Service,
			StartedAt:    m.startedAt,
			Probes:       m.probes(),
			ReportSink:   m.sink,
			ReadyTimeout: m.deps.Cfg.Prefix("CORE_API_").MayDuration("READY_TIMEOUT", 2*time.Second),
		})
	})
}

// probes always lists pg and ch so the response shape is stable, disabled ones are skipped
func (m *Module) probes() []metahttp.Probe {
	return []metahttp.Probe{
		{Name: "pg", Ping: pingOf(m.deps.PG)},
		{Name: "ch", Ping: pingOf(m.deps.CH)},
	}
}

func pingOf(v any) func(context.Context) error {
	if p, ok := v.(store.Pinger); ok {
		return p.Ping
	}
	return nil
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.built.Name, "meta") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
