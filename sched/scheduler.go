// Package sched is the cooperative scheduler's pending-event set.
//
// Each event kind is one bit, defined by the application. The set is
// level-triggered: posting a pending kind again is a no-op, so two posts
// before the main loop runs are consumed once. Kinds that need per-occurrence
// data keep it in a driver-owned slot read by the handler.
package sched

import (
	"sync/atomic"

	"beaconcode-go/irq"
)

// Event is a single bit in the pending set.
type Event uint32

// None posts nothing; bus transfers started with it complete silently.
const None Event = 0

// Bit returns the event kind for bit n (0..31).
func Bit(n uint) Event { return Event(1) << n }

// Scheduler holds the pending set. Post and Clear may be called from both
// interrupt and main-loop context.
type Scheduler struct {
	cs      irq.Controller
	pending atomic.Uint32
}

func New(cs irq.Controller) *Scheduler {
	return &Scheduler{cs: cs}
}

// Post marks e pending.
func (s *Scheduler) Post(e Event) {
	if e == None {
		return
	}
	st := s.cs.Disable()
	s.pending.Store(s.pending.Load() | uint32(e))
	s.cs.Restore(st)
}

// Clear removes exactly the bits in e.
func (s *Scheduler) Clear(e Event) {
	st := s.cs.Disable()
	s.pending.Store(s.pending.Load() &^ uint32(e))
	s.cs.Restore(st)
}

// Pending returns the current set.
func (s *Scheduler) Pending() Event { return Event(s.pending.Load()) }

// Has reports whether every bit in e is pending.
func (s *Scheduler) Has(e Event) bool {
	return e != None && Event(s.pending.Load())&e == e
}

// Reset empties the set. Only call at system start.
func (s *Scheduler) Reset() {
	st := s.cs.Disable()
	s.pending.Store(0)
	s.cs.Restore(st)
}
