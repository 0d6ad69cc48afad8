package pg

import (
	"context"
	"strings"

	"storepulse/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one traced statement
type QueryEvent struct {
	SQL string
	// Args is the bind slice, or CopyRows for a COPY
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// CopyRows stands in for the args of a COPY, the rows themselves are never logged
type CopyRows int

// QueryTracer receives query events from the store adapters
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement when SERVICE_PGSQL_LOG_SQL is on whatever the root level is
// slow statements log at warn
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if id := logger.RequestID(ctx); id != "" {
		evt = evt.Str("request_id", id)
	}
	if id := logger.JobID(ctx); id != "" {
		evt = evt.Str("job_id", id)
	}
	if n, ok := ev.Args.(CopyRows); ok {
		evt = evt.Int("rows", int(n))
	} else {
		evt = evt.Interface("args", ev.Args)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds multi line SQL onto one log line
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }
