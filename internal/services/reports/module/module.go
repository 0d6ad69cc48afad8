// Package module wires the reports service into HTTP via modkit
package module

import (
	"context"

	"storepulse/internal/core/tz"
	"storepulse/internal/modkit"
	"storepulse/internal/modkit/httpkit"
	"storepulse/internal/modkit/swaggerkit"
	"storepulse/internal/platform/strings"
	"storepulse/internal/services/reports/domain"
	reportshttp "storepulse/internal/services/reports/http"
	"storepulse/internal/services/reports/repo"
	"storepulse/internal/services/reports/service"
	"storepulse/internal/services/reports/sink"
)

// Worker drains the job queue until ctx ends
type Worker interface {
	Run(ctx context.Context) error
}

// Janitor removes expired results until ctx ends
type Janitor interface {
	RunJanitor(ctx context.Context) error
}

// Runner computes one report inline
type Runner interface {
	RunSync(ctx context.Context) (domain.Job, error)
}

// Ports exposes the service and its background loops
type Ports struct {
	Service domain.ServicePort
	Worker  Worker
	Janitor Janitor
	Runner  Runner
}

// Module implements the reports module
type Module struct {
	deps  modkit.Deps
	opts  Options
	built modkit.Built
	ports Ports

	svc *service.Service
	ch  *sink.ClickHouse
}

// New constructs the reports module, inputs live in postgres
// jobs do too unless a domain.JobStore is injected with modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("reports"), modkit.WithPrefix("/reports")}, opts...)...)
	o := FromConfig(deps.Cfg)

	if deps.PG == nil {
		panic("reports module requires postgres")
	}
	pg := repo.NewPG().Bind(deps.PG)

	m := &Module{deps: deps, opts: o, built: b}
	var out domain.ResultSink
	switch o.Sink {
	case SinkClickHouse:
		if deps.CH == nil {
			panic("CORE_REPORTS_SINK=clickhouse requires SERVICE_CLICKHOUSE_ENABLED")
		}
		m.ch = sink.NewClickHouse(deps.CH, o.CHTable, sink.BreakerConfig{
			Failures: uint32(o.BreakerFailures),
			Cooldown: o.BreakerCooldown,
		})
		out = m.ch
	default:
		out = sink.NewCSV(o.Dir)
	}

	var jobs domain.JobStore = pg
	if js, ok := b.Ports.(domain.JobStore); ok {
		jobs = js
	}

	m.svc = service.New(pg, jobs, out, tz.MustConverter(o.DefaultZone), service.Config{
		JobWorkers:    o.JobWorkers,
		QueueSize:     o.QueueSize,
		EntityWorkers: o.EntityWorkers,
		Retention:     o.Retention,
		CleanupEvery:  o.CleanupEvery,
	}, deps.Registry())
	m.ports = Ports{Service: m.svc, Worker: m.svc, Janitor: m.svc, Runner: m.svc}
	return m
}

// Prepare creates the postgres schema and the clickhouse result table when that sink is used
func (m *Module) Prepare(ctx context.Context) error {
	if err := repo.EnsureSchema(ctx, m.deps.PG); err != nil {
		return err
	}
	if m.ch != nil {
		return m.ch.EnsureTable(ctx)
	}
	return nil
}

// Options returns the resolved settings
func (m *Module) Options() Options { return m.opts }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { reportshttp.Register(rr, m.svc) })
}

// DocMutator tags the served OpenAPI document with the active sink
// a clickhouse sink never hands out files, so the csv download is dropped from the poll route
func (m *Module) DocMutator() swaggerkit.SpecMutator {
	kind := m.opts.Sink
	return func(spec map[string]any) {
		if info, ok := spec["info"].(map[string]any); ok {
			info["x-report-sink"] = kind
		}
		if kind == SinkCSV {
			return
		}
		paths, _ := spec["paths"].(map[string]any)
		get, _ := paths["/reports/{report_id}"].(map[string]any)
		op, _ := get["get"].(map[string]any)
		resps, _ := op["responses"].(map[string]any)
		ok200, _ := resps["200"].(map[string]any)
		if content, ok := ok200["content"].(map[string]any); ok {
			delete(content, "text/csv")
		}
	}
}

// Name is the module name
func (m *Module) Name() string { return strings.MustString(m.built.Name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
