package modkit

import (
	"testing"

	phttp "storepulse/internal/platform/net/http"
)

type stub struct {
	mounted bool
	ports   any
}

func (s *stub) MountRoutes(phttp.Router) { s.mounted = true }
func (s *stub) Ports() any               { return s.ports }
func (s *stub) Name() string             { return "stub" }

func TestBuilder_Signature(t *testing.T) {
	t.Parallel()
	var b Builder = func(d Deps, opts ...Option) Module {
		built := Build(opts...)
		return &stub{ports: built.Ports}
	}
	m := b(Deps{}, WithPorts("ok"))
	if m.Ports() != "ok" || m.Name() != "stub" {
		t.Fatalf("got ports=%v name=%q", m.Ports(), m.Name())
	}
	m.MountRoutes(nil)
	if !m.(*stub).mounted {
		t.Fatal("MountRoutes not called")
	}
}
