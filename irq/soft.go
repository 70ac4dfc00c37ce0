package irq

import (
	"sync"
	"time"
)

// RelaxSpin bounds one Relax wait when nothing is queued, so callers polling
// a deadline make progress while no source is raising.
const RelaxSpin = time.Millisecond

// Soft delivers interrupt service routines on the main goroutine.
//
// Interrupt sources are goroutines (a timer, a UART reader) or peripheral
// models reacting to a command. They hand a routine to Raise or Pend; the
// routine runs on the main goroutine the next time interrupts are unmasked,
// one at a time and never nested, the way a single-core MCU services
// non-nesting interrupts. Idle is the wait-for-interrupt: it blocks until a
// source raises something, and the routine runs once the caller restores the
// mask.
//
// All methods except Raise and Close must be called from the main goroutine.
type Soft struct {
	raised chan func()
	stop   chan struct{}
	once   sync.Once

	depth   int
	pending []func()
	served  uint32
	spin    *time.Timer
}

// NewSoft returns a controller whose Raise queue holds depth routines.
func NewSoft(depth int) *Soft {
	if depth < 1 {
		depth = 1
	}
	return &Soft{raised: make(chan func(), depth), stop: make(chan struct{})}
}

func (s *Soft) Disable() State {
	d := s.depth
	s.depth++
	return State(d)
}

func (s *Soft) Restore(st State) {
	s.depth = int(st)
	if s.depth == 0 {
		s.service()
	}
}

// Masked reports whether a critical section or a routine is running.
func (s *Soft) Masked() bool { return s.depth > 0 }

// Pend queues isr from the main goroutine, as a peripheral does when a
// command completes. It runs at once when interrupts are unmasked.
func (s *Soft) Pend(isr func()) {
	s.pending = append(s.pending, isr)
	if s.depth == 0 {
		s.service()
	}
}

// Raise queues isr from any goroutine. It blocks while the queue is full and
// drops isr once the controller is closed.
func (s *Soft) Raise(isr func()) {
	select {
	case s.raised <- isr:
	case <-s.stop:
	}
}

// Idle blocks until a routine is queued. Callers hold the mask, so the
// routine runs at the matching Restore.
func (s *Soft) Idle() {
	if len(s.pending) > 0 {
		return
	}
	select {
	case isr := <-s.raised:
		s.pending = append(s.pending, isr)
	case <-s.stop:
	}
}

// Relax services queued routines, or waits up to RelaxSpin for one, while
// the main loop spins on a flag owned by interrupt context.
func (s *Soft) Relax() {
	if s.depth > 0 {
		return
	}
	if len(s.pending) == 0 {
		if s.spin == nil {
			s.spin = time.NewTimer(RelaxSpin)
		} else {
			s.spin.Reset(RelaxSpin)
		}
		select {
		case isr := <-s.raised:
			s.pending = append(s.pending, isr)
			s.stopSpin()
		case <-s.stop:
			s.stopSpin()
			return
		case <-s.spin.C:
			return
		}
	}
	s.service()
}

func (s *Soft) stopSpin() {
	if !s.spin.Stop() {
		select {
		case <-s.spin.C:
		default:
		}
	}
}

// Close releases Idle, Relax and Raise for shutdown.
func (s *Soft) Close() { s.once.Do(func() { close(s.stop) }) }

// Closed reports whether Close was called.
func (s *Soft) Closed() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Served counts routines run.
func (s *Soft) Served() uint32 { return s.served }

func (s *Soft) next() (func(), bool) {
	if len(s.pending) > 0 {
		isr := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		if len(s.pending) == 0 {
			s.pending = s.pending[:0:0]
		}
		return isr, true
	}
	select {
	case isr := <-s.raised:
		return isr, true
	default:
		return nil, false
	}
}

func (s *Soft) service() {
	for {
		isr, ok := s.next()
		if !ok {
			return
		}
		s.depth = 1
		s.served++
		isr()
		s.depth = 0
	}
}
