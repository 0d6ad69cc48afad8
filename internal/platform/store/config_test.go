package store

import (
	"testing"
	"time"

	"storepulse/internal/platform/config"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://pulse@db/pulse")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "8")
	t.Setenv("SERVICE_PGSQL_STATEMENT_TIMEOUT", "2m")

	cfg := FromEnv(config.New(), "api", "v1")
	if !cfg.PG.Enabled || cfg.PG.URL != "postgres://pulse@db/pulse" || cfg.PG.MaxConns != 8 || cfg.PG.SlowQueryMs != 500 || cfg.PG.StatementTimeout != 2*time.Minute {
		t.Fatalf("pg=%+v", cfg.PG)
	}
	if cfg.CH.Enabled || cfg.AppName != "storepulse-api" {
		t.Fatalf("cfg=%+v", cfg)
	}

	t.Setenv("SERVICE_CLICKHOUSE_ENABLED", "true")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "clickhouse://ch:9000")
	cfg = FromEnv(config.New(), "report", "v1")
	if !cfg.CH.Enabled || cfg.CH.URL != "clickhouse://ch:9000" || cfg.CH.Role != "report" || cfg.CH.Tag != "v1" {
		t.Fatalf("ch=%+v", cfg.CH)
	}
}
