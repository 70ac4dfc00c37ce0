package sleep

import (
	"testing"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
)

type fakeSleeper struct {
	cs      *irq.Nest
	entered []Mode
	masked  []bool
}

func (f *fakeSleeper) Sleep(m Mode) {
	f.entered = append(f.entered, m)
	f.masked = append(f.masked, f.cs.Masked())
}

func newTestArbiter(opts ...Options) (*Arbiter, *fakeSleeper) {
	cs := &irq.Nest{}
	sl := &fakeSleeper{cs: cs}
	return NewArbiter(cs, sl, opts...), sl
}

func expectFatal(t *testing.T, want errcode.Code, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if got := errcode.Recovered(recover()); got != want {
			t.Fatalf("fault = %q, want %q", got, want)
		}
	}()
	fn()
}

func TestIdleSelectsDeepestConfigured(t *testing.T) {
	a, sl := newTestArbiter()
	if got := a.DeepestAllowed(); got != EM3 {
		t.Fatalf("DeepestAllowed = %v, want EM3", got)
	}
	if got := a.EnterDeepestAllowed(); got != EM3 {
		t.Fatalf("entered %v, want EM3", got)
	}
	if len(sl.entered) != 1 || sl.entered[0] != EM3 {
		t.Fatalf("sleeper saw %v", sl.entered)
	}
	if !sl.masked[0] {
		t.Fatalf("sleep must be entered with interrupts masked")
	}

	b, _ := newTestArbiter(Options{Deepest: EM2})
	if got := b.DeepestAllowed(); got != EM2 {
		t.Fatalf("configured deepest = %v, want EM2", got)
	}
}

func TestBlockSelectsShallowerMode(t *testing.T) {
	cases := []struct {
		block  Mode
		target Mode
	}{
		{EM0, EM0},
		{EM1, EM0},
		{EM2, EM1},
		{EM3, EM2},
		{EM4, EM3},
	}
	for _, c := range cases {
		a, sl := newTestArbiter()
		a.Block(c.block)
		if got := a.DeepestAllowed(); got != c.block {
			t.Errorf("block %v: DeepestAllowed = %v", c.block, got)
		}
		if got := a.EnterDeepestAllowed(); got != c.target {
			t.Errorf("block %v: entered %v, want %v", c.block, got, c.target)
		}
		if c.target == EM0 && len(sl.entered) != 0 {
			t.Errorf("block %v: EM0 must not issue a sleep instruction", c.block)
		}
	}
}

func TestMostActiveBlockWins(t *testing.T) {
	a, _ := newTestArbiter()
	a.Block(EM3)
	a.Block(EM2)
	if got := a.DeepestAllowed(); got != EM2 {
		t.Fatalf("DeepestAllowed = %v, want EM2", got)
	}
	a.Unblock(EM2)
	if got := a.DeepestAllowed(); got != EM3 {
		t.Fatalf("after unblock EM2: %v, want EM3", got)
	}
}

func TestMatchedPairsRestoreIdle(t *testing.T) {
	a, _ := newTestArbiter()
	seq := []Mode{EM2, EM3, EM2, EM1, EM4}
	for _, m := range seq {
		a.Block(m)
	}
	for i := len(seq) - 1; i >= 0; i-- {
		a.Unblock(seq[i])
	}
	for m := EM0; m < NumModes; m++ {
		if a.Count(m) != 0 {
			t.Fatalf("count[%v] = %d after matched pairs", m, a.Count(m))
		}
	}
	if got := a.DeepestAllowed(); got != EM3 {
		t.Fatalf("DeepestAllowed = %v, want EM3", got)
	}
}

func TestCountsAreReferenceCounted(t *testing.T) {
	a, _ := newTestArbiter()
	a.Block(EM2)
	a.Block(EM2)
	if a.Count(EM2) != 2 {
		t.Fatalf("count = %d, want 2", a.Count(EM2))
	}
	a.Unblock(EM2)
	if a.Count(EM2) != 1 || a.DeepestAllowed() != EM2 {
		t.Fatalf("one owner's unblock released the other's block")
	}
	a.Unblock(EM2)
	if a.Count(EM2) != 0 {
		t.Fatalf("count = %d, want 0", a.Count(EM2))
	}
}

func TestUnmatchedUnblockIsFatal(t *testing.T) {
	a, _ := newTestArbiter()
	expectFatal(t, errcode.BlockUnderflow, func() { a.Unblock(EM2) })
}

func TestCeilingIsFatal(t *testing.T) {
	a, _ := newTestArbiter(Options{Ceiling: 3})
	a.Block(EM2)
	a.Block(EM2)
	expectFatal(t, errcode.BlockOverflow, func() { a.Block(EM2) })
}

func TestInvalidModeIsFatal(t *testing.T) {
	a, _ := newTestArbiter()
	expectFatal(t, errcode.InvalidMode, func() { a.Block(Mode(9)) })
}

func TestReset(t *testing.T) {
	a, _ := newTestArbiter()
	a.Block(EM1)
	a.Reset()
	if a.Count(EM1) != 0 || a.Target() != EM3 {
		t.Fatalf("Reset left blocks behind")
	}
}
