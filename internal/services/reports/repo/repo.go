// Package repo provides postgres access for report inputs and jobs
package repo

import (
	"context"
	"errors"
	"time"

	"storepulse/internal/core/bizhours"
	"storepulse/internal/modkit/repokit"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/store"
	ptime "storepulse/internal/platform/time"
	"storepulse/internal/services/reports/domain"
)

// Repo is every store the reports service reads or writes
type Repo interface {
	domain.ObservationStore
	domain.CalendarStore
	domain.TimezoneStore
	domain.JobStore
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements Repo
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the postgres repo
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) ListEntityIDs(ctx context.Context) ([]string, error) {
	const sql = `
select distinct store_id
from store_status
order by store_id
`
	ids, err := store.Many(ctx, r.q, scanString, sql)
	if err != nil {
		return nil, perr.FromPostgres(err, "list store ids")
	}
	return ids, nil
}

func (r *queries) ObservationsInRange(ctx context.Context, storeID string, start, end time.Time) ([]domain.Observation, error) {
	const sql = `
select timestamp_utc, status
from store_status
where store_id = $1
and timestamp_utc between $2 and $3
order by timestamp_utc
`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Observation, error) {
		var (
			o      domain.Observation
			status string
		)
		if err := row.Scan(&o.At, &status); err != nil {
			return o, err
		}
		o.StoreID = storeID
		o.At = o.At.UTC()
		o.State = domain.StateFromStatus(status)
		return o, nil
	}, sql, storeID, start.UTC(), end.UTC())
	if err != nil {
		return nil, perr.FromPostgresf(err, "observations for %s", storeID)
	}
	return out, nil
}

func (r *queries) MaxObservedTimestamp(ctx context.Context) (time.Time, bool, error) {
	const sql = `select max(timestamp_utc) from store_status`
	ts, err := store.Scalar[*time.Time](ctx, r.q, sql)
	if err != nil {
		return time.Time{}, false, perr.FromPostgres(err, "max observed timestamp")
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return ts.UTC(), true, nil
}

func (r *queries) CalendarFor(ctx context.Context, storeID string) ([]bizhours.Entry, error) {
	// load order so a later duplicate row for a weekday wins
	const sql = `
select day_of_week, start_time_local, end_time_local
from business_hours
where store_id = $1
order by id
`
	out, err := store.Many(ctx, r.q, func(row store.Row) (bizhours.Entry, error) {
		var (
			e   bizhours.Entry
			day int16
		)
		err := row.Scan(&day, &e.Open, &e.Close)
		e.Day = int(day)
		return e, err
	}, sql, storeID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "business hours for %s", storeID)
	}
	return out, nil
}

func (r *queries) TimezoneFor(ctx context.Context, storeID string) (string, bool, error) {
	const sql = `select timezone_str from store_timezones where store_id = $1`
	zone, err := store.One(ctx, r.q, scanString, sql, storeID)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return "", false, nil
	case err != nil:
		return "", false, perr.FromPostgresf(err, "timezone for %s", storeID)
	}
	return zone, true, nil
}

func (r *queries) Create(ctx context.Context, job domain.Job) error {
	const sql = `
insert into report_jobs (job_id, status, created_at, entities, failed_entities)
values ($1, $2, $3, 0, 0)
`
	if err := store.ExecOne(ctx, r.q, sql, job.ID, string(job.Status), job.CreatedAt.UTC()); err != nil {
		return perr.FromPostgresf(err, "create job %s", job.ID)
	}
	return nil
}

func (r *queries) Transition(ctx context.Context, id string, to domain.Status, out domain.Outcome) error {
	if !to.Terminal() {
		return perr.InvalidArgf("transition to %s is not terminal", to)
	}
	const sql = `
update report_jobs
set status = $2,
completed_at = $3,
result_handle = nullif($4, ''),
error = nullif($5, ''),
entities = $6,
failed_entities = $7
where job_id = $1
and status = 'Running'
`
	err := store.ExecOne(ctx, r.q, sql, id, string(to), out.CompletedAt.UTC(),
		out.ResultHandle, out.Error, out.Entities, out.FailedEntities)
	if err == nil {
		return nil
	}
	if !errors.Is(err, perr.ErrNotFound) {
		return perr.FromPostgresf(err, "transition job %s", id)
	}
	// nothing updated: either unknown or already terminal
	cur, gerr := r.Get(ctx, id)
	if gerr != nil {
		return gerr
	}
	return perr.Conflictf("job %s is already %s", id, cur.Status)
}

func (r *queries) Get(ctx context.Context, id string) (domain.Job, error) {
	const sql = `
select job_id::text, status, created_at, completed_at,
coalesce(result_handle, ''), coalesce(error, ''), entities, failed_entities
from report_jobs
where job_id = $1
`
	job, err := store.One(ctx, r.q, scanJob, sql, id)
	switch {
	case errors.Is(err, perr.ErrNotFound):
		return domain.Job{}, perr.NotFoundf("report %s not found", id)
	case err != nil:
		return domain.Job{}, perr.FromPostgresf(err, "get job %s", id)
	}
	return job, nil
}

func scanJob(row store.Row) (domain.Job, error) {
	var (
		j         domain.Job
		status    string
		completed *time.Time
	)
	if err := row.Scan(&j.ID, &status, &j.CreatedAt, &completed,
		&j.ResultHandle, &j.Error, &j.Entities, &j.FailedEntities); err != nil {
		return j, err
	}
	j.Status = domain.Status(status)
	j.CreatedAt = j.CreatedAt.UTC()
	if completed != nil {
		j.CompletedAt = ptime.Ptr(completed.UTC())
	}
	return j, nil
}

func scanString(row store.Row) (string, error) {
	var s string
	return s, row.Scan(&s)
}
