package modkit

import "net/http"

// Option adjusts how a module is built
type Option func(*buildCfg)

type buildCfg struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	ports  any
}

// WithName names the module, it shows up in logs and Name()
func WithName(name string) Option { return func(c *buildCfg) { c.name = name } }

// WithPrefix sets the path the module mounts under, relative to /api/v1
func WithPrefix(prefix string) Option { return func(c *buildCfg) { c.prefix = prefix } }

// WithMiddlewares appends middleware that only wraps this module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithPorts hands the module a collaborator it would otherwise build itself
// the reports module takes a domain.JobStore this way
func WithPorts[T any](p T) Option { return func(c *buildCfg) { c.ports = p } }
