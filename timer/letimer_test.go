package timer

import (
	"testing"
	"time"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
)

type fakePort struct {
	top, active uint32
	irq         Source
	running     bool
	runs        int
}

func (f *fakePort) Load(top, active uint32) { f.top, f.active = top, active }
func (f *fakePort) EnableIRQ(m Source)      { f.irq = m }
func (f *fakePort) Run(on bool) {
	f.running = on
	f.runs++
}

type nopSleeper struct{}

func (nopSleeper) Sleep(sleep.Mode) {}

func newTestTimer() (*Timer, *fakePort, *sleep.Arbiter, *sched.Scheduler) {
	cs := &irq.Nest{}
	arb := sleep.NewArbiter(cs, nopSleeper{})
	s := sched.New(cs)
	hw := &fakePort{}
	return New(hw, arb, s), hw, arb, s
}

func testConfig() Config {
	return Config{
		Period: 2 * time.Second,
		Active: 2 * time.Millisecond,
		Hz:     1000,
		IRQ:    Underflow | Comp1,
		UF:     sched.Bit(2),
		Comp0:  sched.Bit(0),
		Comp1:  sched.Bit(1),
	}
}

func TestOpenLoadsCounts(t *testing.T) {
	tm, hw, arb, _ := newTestTimer()
	if err := tm.Open(testConfig()); err != nil {
		t.Fatal(err)
	}
	if hw.top != 2000 || hw.active != 2 || hw.irq != Underflow|Comp1 {
		t.Fatalf("port = %+v", hw)
	}
	if tm.Running() || arb.Count(sleep.EM4) != 0 {
		t.Fatalf("Open started the timer")
	}
	if tm.Config().Mode != sleep.EM4 {
		t.Fatalf("default mode = %v", tm.Config().Mode)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	tm, hw, arb, _ := newTestTimer()
	_ = tm.Open(testConfig())
	tm.Start(true)
	tm.Start(true)
	if arb.Count(sleep.EM4) != 1 || !hw.running || hw.runs != 1 {
		t.Fatalf("em4=%d running=%v runs=%d", arb.Count(sleep.EM4), hw.running, hw.runs)
	}
	if arb.Target() != sleep.EM3 {
		t.Fatalf("target = %v", arb.Target())
	}
	tm.Start(false)
	tm.Start(false)
	if arb.Count(sleep.EM4) != 0 || hw.running {
		t.Fatalf("stop left em4=%d", arb.Count(sleep.EM4))
	}
}

func TestStepPostsEvents(t *testing.T) {
	tm, _, _, s := newTestTimer()
	_ = tm.Open(testConfig())
	tm.Step(Comp1)
	tm.Step(Underflow)
	tm.Step(Underflow)
	if s.Pending() != sched.Bit(1)|sched.Bit(2) {
		t.Fatalf("pending = %#x", s.Pending())
	}
	if tm.Ticks() != 2 {
		t.Fatalf("ticks = %d", tm.Ticks())
	}
}

func TestStepDisabledSourceIsFatal(t *testing.T) {
	tm, _, _, _ := newTestTimer()
	_ = tm.Open(testConfig())
	defer func() {
		if got := errcode.Recovered(recover()); got != errcode.UnexpectedIRQ {
			t.Fatalf("fault = %q", got)
		}
	}()
	tm.Step(Comp0)
}

func TestOpenRejects(t *testing.T) {
	tm, _, _, _ := newTestTimer()
	bad := []func(*Config){
		func(c *Config) { c.Hz = 0 },
		func(c *Config) { c.Period = 0 },
		func(c *Config) { c.Active = 3 * time.Second },
		func(c *Config) { c.Period = 100 * time.Second },
		func(c *Config) { c.IRQ = 0x80 },
	}
	for i, mut := range bad {
		c := testConfig()
		mut(&c)
		if err := tm.Open(c); errcode.Of(err) != errcode.InvalidParams {
			t.Errorf("case %d: err = %v", i, err)
		}
	}
	c := testConfig()
	c.Mode = 9
	if err := tm.Open(c); errcode.Of(err) != errcode.InvalidMode {
		t.Errorf("mode: err = %v", err)
	}
}

func TestReopenStopsRunningTimer(t *testing.T) {
	tm, _, arb, _ := newTestTimer()
	_ = tm.Open(testConfig())
	tm.Start(true)
	if err := tm.Open(testConfig()); err != nil {
		t.Fatal(err)
	}
	if tm.Running() || arb.Count(sleep.EM4) != 0 {
		t.Fatalf("reopen kept the block")
	}
}

func TestOnUnderflowRunsPerUnderflow(t *testing.T) {
	tm, _, _, s := newTestTimer()
	_ = tm.Open(testConfig())
	n := 0
	tm.OnUnderflow(func() {
		if !s.Has(testConfig().UF) {
			t.Fatalf("hook ran before the event was posted")
		}
		n++
	})
	tm.Step(Underflow)
	tm.Step(Comp1)
	tm.Step(Underflow)
	if n != 2 {
		t.Fatalf("hook runs = %d", n)
	}
}
