package strings

import (
	"testing"

	"storepulse/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	if got := IfEmpty([]int{1, 2, 3}, []int{9}); len(got) != 3 || got[0] != 1 {
		t.Fatalf("IfEmpty returned wrong slice: %#v", got)
	}

	var empty []string
	if got := IfEmpty(empty, []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("IfEmpty did not return default: %#v", got)
	}
}

func TestMustString(t *testing.T) {
	t.Parallel()

	if got := MustString("reports", "name"); got != "reports" {
		t.Fatalf("want reports got %q", got)
	}
	for _, in := range []string{"", "   ", "\t\n"} {
		in := in
		testkit.MustPanic(t, func() { _ = MustString(in, "module name") })
	}
}
