// Package modkit provides module wiring and core deps
package modkit

import (
	"storepulse/internal/modkit/repokit"
	"storepulse/internal/platform/config"
	"storepulse/internal/platform/logger"
	"storepulse/internal/platform/metrics"
	"storepulse/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	// CH is nil unless SERVICE_CLICKHOUSE_ENABLED
	CH      store.Clickhouse
	Metrics *metrics.Registry
}

// Registry returns Metrics or a throwaway registry so modules never nil check
func (d Deps) Registry() *metrics.Registry {
	if d.Metrics == nil {
		return metrics.NewBare()
	}
	return d.Metrics
}
