package repo

import (
	"context"

	"storepulse/internal/modkit/repokit"
	perr "storepulse/internal/platform/errors"
)

// Tables owned by this service, in load order
const (
	TableStatus    = "store_status"
	TableHours     = "business_hours"
	TableTimezones = "store_timezones"
	TableJobs      = "report_jobs"
)

var schema = []string{
	`create table if not exists store_status (
store_id text not null,
timestamp_utc timestamptz not null,
status text not null check (status in ('active', 'inactive'))
)`,
	`create index if not exists store_status_store_ts_idx on store_status (store_id, timestamp_utc)`,
	`create index if not exists store_status_ts_idx on store_status (timestamp_utc)`,
	`create table if not exists business_hours (
id bigserial primary key,
store_id text not null,
day_of_week smallint not null check (day_of_week between 0 and 6),
start_time_local text not null,
end_time_local text not null
)`,
	`create index if not exists business_hours_store_idx on business_hours (store_id)`,
	`create table if not exists store_timezones (
store_id text primary key,
timezone_str text not null
)`,
	`create table if not exists report_jobs (
job_id uuid primary key,
status text not null check (status in ('Running', 'Complete', 'Failed')),
created_at timestamptz not null,
completed_at timestamptz,
result_handle text,
error text,
entities int not null default 0,
failed_entities int not null default 0
)`,
}

// EnsureSchema creates the tables and indexes when missing, all in one transaction
func EnsureSchema(ctx context.Context, tx repokit.TxRunner) error {
	return repokit.WithTx(ctx, tx, func(q repokit.Queryer) error {
		for _, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return perr.FromPostgres(err, "ensure schema")
			}
		}
		return nil
	})
}

// Truncate clears the input tables, jobs are kept
func Truncate(ctx context.Context, q repokit.Queryer) error {
	const sql = `truncate table store_status, business_hours, store_timezones`
	if _, err := q.Exec(ctx, sql); err != nil {
		return perr.FromPostgres(err, "truncate inputs")
	}
	return nil
}
