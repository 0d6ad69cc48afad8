package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"storepulse/internal/modkit/repokit"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/testkit"
	"storepulse/internal/services/reports/domain"
)

type tag int64

func (t tag) String() string      { return "UPDATE" }
func (t tag) RowsAffected() int64 { return int64(t) }

type rows struct {
	data [][]any
	idx  int
}

func (r *rows) Next() bool        { r.idx++; return r.idx < len(r.data) }
func (r *rows) Err() error        { return nil }
func (r *rows) Close()            {}
func (r *rows) Columns() []string { return nil }

func (r *rows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d values for %d dest", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case *int16:
			*p = row[i].(int16)
		case *time.Time:
			*p = row[i].(time.Time)
		case **time.Time:
			*p, _ = row[i].(*time.Time)
		default:
			return fmt.Errorf("scan: unsupported %T", d)
		}
	}
	return nil
}

type scalar struct{ v *time.Time }

func (s scalar) Scan(dest ...any) error {
	*(dest[0].(**time.Time)) = s.v
	return nil
}

// fakeQ answers queries from a script in call order
type fakeQ struct {
	results  [][][]any
	affected int64
	execErr  error
	max      *time.Time

	sqls []string
	args [][]any
}

func (f *fakeQ) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	if f.execErr != nil {
		return nil, f.execErr
	}
	return tag(f.affected), nil
}

func (f *fakeQ) Query(_ context.Context, sql string, args ...any) (repokit.Rows, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	if len(f.results) == 0 {
		return &rows{idx: -1}, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return &rows{data: next, idx: -1}, nil
}

func (f *fakeQ) QueryRow(_ context.Context, sql string, _ ...any) repokit.Row {
	f.sqls = append(f.sqls, sql)
	return scalar{v: f.max}
}

func (f *fakeQ) Tx(_ context.Context, fn func(repokit.Queryer) error) error { return fn(f) }

const jobID = "5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77"

func TestObservationsInRange(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("CST", -6*3600)
	at := time.Date(2023, 1, 24, 9, 0, 0, 0, loc)
	q := &fakeQ{results: [][][]any{{
		{at, "active"},
		{at.Add(time.Hour), "inactive"},
	}}}
	r := NewPG().Bind(q)

	start := time.Date(2023, 1, 24, 0, 0, 0, 0, time.UTC)
	got, err := r.ObservationsInRange(context.Background(), "s1", start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].State.String() != "open" || got[1].State.String() != "closed" {
		t.Fatalf("observations=%+v", got)
	}
	if got[0].At.Location() != time.UTC || got[0].StoreID != "s1" {
		t.Fatalf("first=%+v", got[0])
	}
	testkit.MustContain(t, q.sqls[0], "between $2 and $3")
}

func TestMaxObservedTimestamp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if _, ok, err := NewPG().Bind(&fakeQ{}).MaxObservedTimestamp(ctx); ok || err != nil {
		t.Fatalf("empty table ok=%v err=%v", ok, err)
	}
	ts := time.Date(2023, 1, 25, 18, 13, 22, 0, time.UTC)
	got, ok, err := NewPG().Bind(&fakeQ{max: &ts}).MaxObservedTimestamp(ctx)
	if !ok || err != nil || !got.Equal(ts) {
		t.Fatalf("got=%v ok=%v err=%v", got, ok, err)
	}
}

func TestCalendarAndTimezone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	q := &fakeQ{results: [][][]any{{
		{int16(0), "09:00:00", "17:00:00"},
		{int16(6), "22:00:00", "02:00:00"},
	}}}
	entries, err := NewPG().Bind(q).CalendarFor(ctx, "s1")
	if err != nil || len(entries) != 2 || entries[1].Day != 6 || entries[1].Close != "02:00:00" {
		t.Fatalf("entries=%+v err=%v", entries, err)
	}

	zone, ok, err := NewPG().Bind(&fakeQ{results: [][][]any{{{"Asia/Kolkata"}}}}).TimezoneFor(ctx, "s1")
	if zone != "Asia/Kolkata" || !ok || err != nil {
		t.Fatalf("zone=%q ok=%v err=%v", zone, ok, err)
	}
	if _, ok, err := NewPG().Bind(&fakeQ{}).TimezoneFor(ctx, "s2"); ok || err != nil {
		t.Fatalf("missing zone ok=%v err=%v", ok, err)
	}
}

func jobRow(status string, completed *time.Time) []any {
	created := time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC)
	return []any{jobID, status, created, completed, "", "", 0, 0}
}

func TestTransition(t *testing.T) {
	t.Parallel()
	done := time.Date(2023, 1, 25, 18, 5, 0, 0, time.UTC)
	out := domain.Outcome{CompletedAt: done, ResultHandle: "reports/report_x.csv", Entities: 3}

	tests := []struct {
		name     string
		q        *fakeQ
		to       domain.Status
		wantCode perr.ErrorCode
	}{
		{name: "running to complete", q: &fakeQ{affected: 1}, to: domain.StatusComplete},
		{name: "not terminal", q: &fakeQ{affected: 1}, to: domain.StatusRunning, wantCode: perr.ErrorCodeInvalidArgument},
		{name: "unknown job", q: &fakeQ{}, to: domain.StatusFailed, wantCode: perr.ErrorCodeNotFound},
		{
			name:     "already terminal",
			q:        &fakeQ{results: [][][]any{{jobRow("Complete", &done)}}},
			to:       domain.StatusFailed,
			wantCode: perr.ErrorCodeConflict,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := NewPG().Bind(tc.q).Transition(context.Background(), jobID, tc.to, out)
			if tc.wantCode == perr.ErrorCodeUnknown { // zero code: the transition succeeds
				if err != nil {
					t.Fatalf("err=%v", err)
				}
				if tc.q.args[0][3] != out.ResultHandle || tc.q.args[0][5] != 3 {
					t.Fatalf("args=%v", tc.q.args[0])
				}
				return
			}
			if !perr.IsCode(err, tc.wantCode) {
				t.Fatalf("err=%v code=%v want %v", err, perr.CodeOf(err), tc.wantCode)
			}
		})
	}
}

func TestGetAndCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	done := time.Date(2023, 1, 25, 18, 5, 0, 0, time.UTC)

	job, err := NewPG().Bind(&fakeQ{results: [][][]any{{jobRow("Complete", &done)}}}).Get(ctx, jobID)
	if err != nil || job.Status != domain.StatusComplete || job.CompletedAt == nil || !job.CompletedAt.Equal(done) {
		t.Fatalf("job=%+v err=%v", job, err)
	}
	if _, err := NewPG().Bind(&fakeQ{}).Get(ctx, jobID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing job err=%v", err)
	}

	q := &fakeQ{affected: 1}
	if err := NewPG().Bind(q).Create(ctx, domain.Job{ID: jobID, Status: domain.StatusRunning, CreatedAt: done}); err != nil {
		t.Fatal(err)
	}
	if q.args[0][1] != "Running" {
		t.Fatalf("args=%v", q.args[0])
	}
	if err := NewPG().Bind(&fakeQ{execErr: errors.New("conn reset")}).Create(ctx, domain.Job{ID: jobID}); err == nil {
		t.Fatal("exec failure should surface")
	}
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	q := &fakeQ{}
	if err := EnsureSchema(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if len(q.sqls) != len(schema) {
		t.Fatalf("ran %d statements", len(q.sqls))
	}
	all := strings.Join(q.sqls, "\n")
	for _, table := range []string{TableStatus, TableHours, TableTimezones, TableJobs} {
		testkit.MustContain(t, all, "create table if not exists "+table)
	}
	if err := EnsureSchema(context.Background(), &fakeQ{execErr: errors.New("denied")}); err == nil {
		t.Fatal("ddl failure should surface")
	}
}

func TestMemoryJobStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC)

	if err := m.Create(ctx, domain.Job{ID: jobID, Status: domain.StatusRunning, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := m.Create(ctx, domain.Job{ID: jobID}); !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("duplicate create err=%v", err)
	}
	if err := m.Transition(ctx, jobID, domain.StatusRunning, domain.Outcome{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("non terminal err=%v", err)
	}
	out := domain.Outcome{CompletedAt: now.Add(time.Minute), ResultHandle: "h", Entities: 2, FailedEntities: 1}
	if err := m.Transition(ctx, jobID, domain.StatusComplete, out); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(ctx, jobID, domain.StatusFailed, domain.Outcome{}); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("second transition err=%v", err)
	}
	if err := m.Transition(ctx, "nope", domain.StatusFailed, domain.Outcome{}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown err=%v", err)
	}

	got, err := m.Get(ctx, jobID)
	if err != nil || got.Status != domain.StatusComplete || got.ResultHandle != "h" || got.FailedEntities != 1 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	*got.CompletedAt = time.Time{}
	again, _ := m.Get(ctx, jobID)
	if again.CompletedAt.IsZero() {
		t.Fatal("Get must return a copy")
	}
}
