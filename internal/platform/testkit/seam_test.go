package testkit

import (
	"sync"
	"testing"
	"time"
)

var (
	nowFn   = func() time.Time { return time.Unix(0, 0).UTC() }
	workers = 2
)

func TestSwapRestores(t *testing.T) {
	fixed := time.Date(2023, 1, 25, 18, 13, 22, 0, time.UTC)

	t.Run("clock", func(t *testing.T) {
		Swap(t, &nowFn, func() time.Time { return fixed })
		if !nowFn().Equal(fixed) {
			t.Fatalf("swap not applied, got %s", nowFn())
		}
	})
	t.Run("int", func(t *testing.T) {
		Swap(t, &workers, 8)
		if workers != 8 {
			t.Fatalf("workers=%d", workers)
		}
	})

	if !nowFn().Equal(time.Unix(0, 0).UTC()) || workers != 2 {
		t.Fatalf("not restored, now=%s workers=%d", nowFn(), workers)
	}
}

func TestSerialDoesNotInterleave(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	note := func(s string) {
		mu.Lock()
		log = append(log, s)
		mu.Unlock()
	}

	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"a", "b", "c"} {
			name := name
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				note(name + "+")
				time.Sleep(20 * time.Millisecond)
				note(name + "-")
			})
		}
	})

	if len(log) != 6 {
		t.Fatalf("log=%v", log)
	}
	for i := 0; i < len(log); i += 2 {
		open, closed := log[i], log[i+1]
		if open[len(open)-1] != '+' || closed[len(closed)-1] != '-' || open[:1] != closed[:1] {
			t.Fatalf("interleaved: %v", log)
		}
	}
}
