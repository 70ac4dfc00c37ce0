package xfer

import (
	"fmt"
	"testing"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
)

// fakeI2C records every controller command.
type fakeI2C struct {
	ops     []string
	notIdle bool
	noStop  bool
	ien     uint32
}

func (f *fakeI2C) log(s string, a ...any) { f.ops = append(f.ops, fmt.Sprintf(s, a...)) }

func (f *fakeI2C) Idle() bool          { return !f.notIdle }
func (f *fakeI2C) Start()              { f.log("start") }
func (f *fakeI2C) Send(b byte)         { f.log("send %02x", b) }
func (f *fakeI2C) Ack()                { f.log("ack") }
func (f *fakeI2C) Nack()               { f.log("nack") }
func (f *fakeI2C) Stop()               { f.log("stop") }
func (f *fakeI2C) Abort()              { f.log("abort") }
func (f *fakeI2C) SaveIRQ() uint32     { f.log("saveirq"); s := f.ien; f.ien = 0; return s }
func (f *fakeI2C) RestoreIRQ(s uint32) { f.log("restoreirq"); f.ien = s }
func (f *fakeI2C) ClearFlags()         { f.log("clear") }
func (f *fakeI2C) StartStop()          { f.log("startstop") }
func (f *fakeI2C) StopSeen() bool      { return !f.noStop }

// fakeStream records commands of an SPI or LEUART controller.
type fakeStream struct {
	sent     []byte
	txLevel  bool
	txDone   bool
	rx       bool
	selected bool
	selects  int
	flushes  int
}

func (f *fakeStream) Send(b byte)           { f.sent = append(f.sent, b) }
func (f *fakeStream) ArmTxLevel(on bool)    { f.txLevel = on }
func (f *fakeStream) ArmTxComplete(on bool) { f.txDone = on }
func (f *fakeStream) ArmRx(on bool)         { f.rx = on }
func (f *fakeStream) Flush()                { f.flushes++ }
func (f *fakeStream) Select(on bool) {
	f.selected = on
	if on {
		f.selects++
	}
}

// relaxFunc runs fn on every spin iteration.
type relaxFunc func()

func (r relaxFunc) Relax() { r() }

type rig struct {
	cs  *irq.Nest
	arb *sleep.Arbiter
	s   *sched.Scheduler
}

type nopSleeper struct{}

func (nopSleeper) Sleep(sleep.Mode) {}

func newRig(wait irq.Waiter) (*rig, Deps) {
	cs := &irq.Nest{}
	r := &rig{cs: cs, arb: sleep.NewArbiter(cs, nopSleeper{}), s: sched.New(cs)}
	if wait == nil {
		wait = relaxFunc(func() {})
	}
	return r, Deps{CS: cs, Sleep: r.arb, Sched: r.s, Wait: wait}
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
