//go:build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs postgres:16-alpine, the first pull can be slow
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pulse",
				"POSTGRES_PASSWORD": "pulse",
				"POSTGRES_DB":       "pulse",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://pulse:pulse@%s:%s/pulse?sslmode=disable", host, port.Port())
}

func TestOpenIntegration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, ApplicationName: "storepulse-import", StatementTimeout: 5 * time.Second},
		nil, func(pc *pgxpool.Config) { pc.MinConns = 1 })
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// one session so the temp table stays visible
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Release()

	var app, timeout string
	if err := conn.QueryRow(ctx, `select current_setting('application_name'), current_setting('statement_timeout')`).Scan(&app, &timeout); err != nil {
		t.Fatal(err)
	}
	if app != "storepulse-import" || timeout != "5s" {
		t.Fatalf("application_name=%q statement_timeout=%q", app, timeout)
	}

	if _, err := conn.Exec(ctx, `create temporary table status (store_id text, timestamp_utc timestamptz, status text)`); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2023, 1, 24, 9, 0, 0, 0, time.UTC)
	src := pgx.CopyFromRows([][]any{
		{"s1", at, "active"},
		{"s1", at.Add(time.Hour), "inactive"},
		{"s2", at, "active"},
	})
	n, err := conn.CopyFrom(ctx, pgx.Identifier{"status"}, []string{"store_id", "timestamp_utc", "status"}, src)
	if err != nil || n != 3 {
		t.Fatalf("copy n=%d err=%v", n, err)
	}

	type count struct {
		StoreID string
		N       int
	}
	rows, err := conn.Query(ctx, `select store_id, count(*)::int from status group by store_id order by store_id`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := pgx.CollectRows(rows, pgx.RowToStructByPos[count])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != (count{"s1", 2}) || got[1] != (count{"s2", 1}) {
		t.Fatalf("counts=%+v", got)
	}
}
