package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/store"
	"storepulse/internal/services/reports/domain"

	"github.com/sony/gobreaker"
)

// ClickHouseColumns is the insert column order, one row per store and window
var ClickHouseColumns = []string{"job_id", "store_id", "window", "uptime", "downtime", "unit", "created_at"}

// BreakerConfig tunes the circuit around ClickHouse writes
type BreakerConfig struct {
	// Failures in a row that open the circuit; <=0 -> 3
	Failures uint32
	// Open duration before a probe is let through; <=0 -> 30s
	Cooldown time.Duration
}

// ClickHouse inserts report rows into a MergeTree table
type ClickHouse struct {
	ch    store.Clickhouse
	table string
	cb    *gobreaker.CircuitBreaker
	now   func() time.Time
}

var _ domain.ResultSink = (*ClickHouse)(nil)

// NewClickHouse wraps ch with a breaker named after table
func NewClickHouse(ch store.Clickhouse, table string, bc BreakerConfig) *ClickHouse {
	if ch == nil {
		panic("reports.ClickHouse sink requires a clickhouse client")
	}
	if bc.Failures == 0 {
		bc.Failures = 3
	}
	if bc.Cooldown <= 0 {
		bc.Cooldown = 30 * time.Second
	}
	log := logger.Named("reports.sink")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clickhouse:" + table,
		MaxRequests: 1,
		Timeout:     bc.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= bc.Failures },
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("reports: sink breaker state change")
		},
	})
	return &ClickHouse{ch: ch, table: table, cb: cb, now: time.Now}
}

// EnsureTable creates the result table when missing
func (c *ClickHouse) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
job_id UUID,
store_id String,
window LowCardinality(String),
uptime Float64,
downtime Float64,
unit LowCardinality(String),
created_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (job_id, store_id, window)`, c.table)
	if err := c.ch.Exec(ctx, ddl); err != nil {
		return perr.FromClickHouse(err, "create table %s", c.table)
	}
	return nil
}

// Handle names the rows of jobID
func (c *ClickHouse) Handle(jobID string) string {
	return "clickhouse://" + c.table + "?" + url.Values{"job_id": {jobID}}.Encode()
}

// Write validates rows and inserts them as one batch through the breaker
func (c *ClickHouse) Write(ctx context.Context, jobID string, rows []domain.MetricRow) (string, error) {
	report, err := Prepare(rows)
	if err != nil {
		return "", err
	}
	batch := Batch(jobID, report, c.now().UTC())

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.ch.Insert(ctx, c.table, ClickHouseColumns, batch)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "clickhouse sink %s", c.table)
	case err != nil:
		return "", perr.FromClickHouse(err, "insert into %s", c.table)
	}
	return c.Handle(jobID), nil
}

// Batch flattens report rows into one insert row per window
func Batch(jobID string, rows []domain.ReportRow, at time.Time) [][]any {
	out := make([][]any, 0, len(rows)*3)
	for _, r := range rows {
		out = append(out,
			[]any{jobID, r.StoreID, "hour", r.UptimeLastHour, r.DowntimeLastHour, "minutes", at},
			[]any{jobID, r.StoreID, "day", r.UptimeLastDay, r.DowntimeLastDay, "hours", at},
			[]any{jobID, r.StoreID, "week", r.UptimeLastWeek, r.DowntimeLastWeek, "hours", at},
		)
	}
	return out
}
