package xfer

import (
	"context"
	"sync/atomic"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sleep"
)

// protocol supplies the wire-level mechanics for one bus family.
type protocol interface {
	table() Table
	// reset forces the controller back to its idle protocol state. It runs
	// before every transfer and must leave the bus idle or fault.
	reset(e *Engine)
	// begin issues the start condition and selects the first phase.
	begin(e *Engine)
	step(e *Engine, src Source, data byte)
	// end releases framing (chip select) once the last byte is through.
	end(e *Engine)
}

// Deps are the collaborators shared by every engine on a board.
type Deps struct {
	CS    irq.Controller
	Sleep Blocker
	Sched Poster
	Wait  irq.Waiter
}

// Engine is the per-bus transfer state machine.
type Engine struct {
	id   string
	p    protocol
	mode sleep.Mode
	d    Deps

	busy  atomic.Bool
	seq   atomic.Uint32
	phase Phase
	req   Request
	sent  int
	recvd int
}

func newEngine(id string, p protocol, mode sleep.Mode, d Deps) *Engine {
	return &Engine{id: id, p: p, mode: mode, d: d}
}

// ID names the bus instance.
func (e *Engine) ID() string { return e.id }

// Table returns the protocol's phase table.
func (e *Engine) Table() Table { return e.p.table() }

// Mode is the energy mode blocked while a transfer is in flight.
func (e *Engine) Mode() sleep.Mode { return e.mode }

// Busy reports whether a transfer is in flight.
func (e *Engine) Busy() bool { return e.busy.Load() }

// Phase is the current phase. Only meaningful to the interrupt layer and
// tests; application code waits for the completion event instead.
func (e *Engine) Phase() Phase { return e.phase }

// Sent and Received count bytes of the current (or last) transfer.
func (e *Engine) Sent() int     { return e.sent }
func (e *Engine) Received() int { return e.recvd }

// Seq increments on every accepted start.
func (e *Engine) Seq() uint32 { return e.seq.Load() }

// Active returns the latched request of the current (or last) transfer.
func (e *Engine) Active() Request { return e.req }

func (e *Engine) validate(r Request) error {
	t := e.p.table()
	switch {
	case r.Count < 0 || r.Count > len(r.Buf):
		return errcode.New("xfer."+e.id, errcode.InvalidParams, "count exceeds buffer")
	case r.Dir == Read && t.WriteOnly:
		return errcode.New("xfer."+e.id, errcode.InvalidParams, "bus is write-only")
	case r.Dir == Read && r.Count == 0:
		return errcode.New("xfer."+e.id, errcode.InvalidParams, "empty read")
	case !t.Register && r.Count == 0:
		return errcode.New("xfer."+e.id, errcode.InvalidParams, "empty write")
	case t.Address && r.Addr > 0x7F:
		return errcode.New("xfer."+e.id, errcode.InvalidParams, "address exceeds 7 bits")
	}
	return nil
}

// TryStart starts r if the bus is idle. It returns errcode.Busy while a
// transfer is in flight and never waits.
func (e *Engine) TryStart(r Request) error {
	if err := e.validate(r); err != nil {
		return err
	}
	st := e.d.CS.Disable()
	if e.busy.Load() {
		e.d.CS.Restore(st)
		return errcode.Busy
	}
	e.p.reset(e)

	e.d.Sleep.Block(e.mode)
	e.busy.Store(true)
	e.seq.Add(1)
	e.req = r
	e.sent, e.recvd = 0, 0
	e.p.begin(e)
	e.d.CS.Restore(st)
	return nil
}

// Start spins until the bus is idle, then starts r. The wait is a plain
// spin; buses are low rate and transfers short. Cancelling ctx abandons the
// wait, never a transfer already started.
func (e *Engine) Start(ctx context.Context, r Request) error {
	for {
		err := e.TryStart(r)
		if err != errcode.Busy {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.d.Wait.Relax()
	}
}

// Wait spins until the bus is idle.
func (e *Engine) Wait(ctx context.Context) error {
	for e.busy.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.d.Wait.Relax()
	}
	return nil
}

// Step advances the machine for one decoded interrupt source. data carries
// the received byte for SrcRxData and is ignored otherwise.
func (e *Engine) Step(src Source, data byte) {
	e.p.step(e, src, data)
}

// unexpected escalates an interrupt the current phase does not accept.
func (e *Engine) unexpected(src Source) {
	errcode.Fatal("xfer."+e.id, errcode.UnexpectedIRQ, src.String()+" in "+e.phase.String())
}

// expectDir escalates when the latched direction contradicts the phase.
func (e *Engine) expectDir(d Dir) bool {
	if e.req.Dir != d {
		errcode.Fatal("xfer."+e.id, errcode.DirectionMismatch, e.req.Dir.String()+" in "+e.phase.String())
		return false
	}
	return true
}

// complete is the DONE transition shared by every protocol.
func (e *Engine) complete() {
	e.p.end(e)
	e.phase = Done
	e.busy.Store(false)
	e.d.Sleep.Unblock(e.mode)
	e.d.Sched.Post(e.req.Done)
}
