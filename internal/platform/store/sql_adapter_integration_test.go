//go:build integration_pg
// +build integration_pg

package store

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func newTestStoreLogger() logger.Logger {
	// quiet, deterministic logs
	return zerolog.New(io.Discard)
}

func TestSQLAdapter_Integration_CopyQueryAndHelpers(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{PG: PGConfig{Enabled: true, URL: dsn, MaxConns: 2, LogSQL: true}},
		WithLogger(newTestStoreLogger()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := s.PG.(Pinger).Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := s.PG.Exec(ctx, `
		CREATE TABLE probe_status (
			store_id      TEXT NOT NULL,
			timestamp_utc TIMESTAMPTZ NOT NULL,
			status        TEXT NOT NULL
		)
	`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	rows := [][]any{
		{"s1", base, "active"},
		{"s1", base.Add(time.Hour), "inactive"},
		{"s2", base, "active"},
	}
	if err := s.PG.Tx(ctx, func(q RowQuerier) error {
		cp, ok := q.(Copier)
		if !ok {
			t.Fatalf("tx querier %T is not a Copier", q)
		}
		n, err := cp.CopyFrom(ctx, "public.probe_status", []string{"store_id", "timestamp_utc", "status"}, rows)
		if err == nil && n != 3 {
			t.Fatalf("copied %d rows, want 3", n)
		}
		return err
	}); err != nil {
		t.Fatalf("copy in tx: %v", err)
	}

	count, err := Scalar[int64](ctx, s.PG, `SELECT COUNT(*) FROM probe_status`)
	if err != nil || count != 3 {
		t.Fatalf("Scalar count=%d err=%v", count, err)
	}

	ids, err := Many(ctx, s.PG, func(r Row) (string, error) {
		var id string
		return id, r.Scan(&id)
	}, `SELECT DISTINCT store_id FROM probe_status ORDER BY store_id`)
	if err != nil || len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Fatalf("Many ids=%v err=%v", ids, err)
	}

	_, err = One(ctx, s.PG, func(r Row) (string, error) {
		var st string
		return st, r.Scan(&st)
	}, `SELECT status FROM probe_status WHERE store_id = $1`, "nope")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("One on no rows err=%v, want not found", err)
	}

	if err := ExecOne(ctx, s.PG, `UPDATE probe_status SET status = 'active' WHERE store_id = $1`, "s2"); err != nil {
		t.Fatalf("ExecOne: %v", err)
	}
	if err := ExecOne(ctx, s.PG, `UPDATE probe_status SET status = 'active' WHERE store_id = $1`, "s1"); err == nil {
		t.Fatalf("ExecOne should fail when two rows change")
	}

	// rollback discards the copy
	_ = s.PG.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.(Copier).CopyFrom(ctx, "probe_status", []string{"store_id", "timestamp_utc", "status"}, rows); err != nil {
			return err
		}
		return errRollback
	})
	count, _ = Scalar[int64](ctx, s.PG, `SELECT COUNT(*) FROM probe_status`)
	if count != 3 {
		t.Fatalf("rollback left count=%d want 3", count)
	}
}

var errRollback = &fakeErr{}

type fakeErr struct{}

func (*fakeErr) Error() string { return "rollback" }
