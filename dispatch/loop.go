// Package dispatch is the firmware's top-level control loop: sleep while
// nothing is pending, then run one handler per pending event kind in a fixed
// priority order.
package dispatch

import (
	"context"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
)

// Handler runs in main-loop context. Any result it needs is fetched through
// the owning driver's accessor; events carry no payload.
type Handler func()

// Entry binds one event kind to its handler. Entries are listed highest
// priority first.
type Entry struct {
	Event  sched.Event
	Name   string
	Handle Handler
}

// Sleeper enters the deepest energy mode currently allowed.
type Sleeper interface {
	EnterDeepestAllowed() sleep.Mode
}

// Events is the pending set consumed by the loop.
type Events interface {
	Pending() sched.Event
	Clear(e sched.Event)
}

type Loop struct {
	cs      irq.Controller
	sl      Sleeper
	ev      Events
	entries []Entry
	known   sched.Event

	sleeps uint32
}

// New validates the priority table. Every entry must name exactly one bit,
// and no bit may appear twice.
func New(cs irq.Controller, sl Sleeper, ev Events, entries []Entry) (*Loop, error) {
	l := &Loop{cs: cs, sl: sl, ev: ev, entries: append([]Entry(nil), entries...)}
	for _, en := range l.entries {
		switch {
		case en.Event == sched.None || en.Event&(en.Event-1) != 0:
			return nil, errcode.New("dispatch.new", errcode.InvalidParams, "entry "+en.Name+" is not a single event bit")
		case en.Handle == nil:
			return nil, errcode.New("dispatch.new", errcode.InvalidParams, "entry "+en.Name+" has no handler")
		case l.known&en.Event != 0:
			return nil, errcode.New("dispatch.new", errcode.InvalidParams, "entry "+en.Name+" duplicates an event")
		}
		l.known |= en.Event
	}
	return l, nil
}

// Once runs one idle-check and one drain pass and returns the number of
// handlers invoked.
func (l *Loop) Once() int {
	// The emptiness test and the sleep decision happen under one mask, so an
	// interrupt posting in between wakes the core instead of being missed.
	st := l.cs.Disable()
	if l.ev.Pending() == sched.None {
		l.sl.EnterDeepestAllowed()
		l.sleeps++
	}
	l.cs.Restore(st)

	if stray := l.ev.Pending() &^ l.known; stray != sched.None {
		errcode.Fatal("dispatch", errcode.UnknownEvent, "no handler for pending event")
		return 0
	}

	n := 0
	for _, en := range l.entries {
		if l.ev.Pending()&en.Event == 0 {
			continue
		}
		l.ev.Clear(en.Event)
		en.Handle()
		n++
	}
	return n
}

// Run loops until ctx is cancelled. Firmware passes context.Background and
// never returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Once()
	}
}

// Sleeps counts idle-check passes that entered the arbiter.
func (l *Loop) Sleeps() uint32 { return l.sleeps }
