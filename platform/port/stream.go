// Package port holds the interrupt plumbing shared by platform controller
// ports: level-triggered transmit sources and receive delivery that honour
// the enable state at the moment the routine runs.
package port

import "beaconcode-go/xfer"

// Pender queues an interrupt routine from the main goroutine.
type Pender interface {
	Pend(isr func())
}

// Stream tracks the interrupt enables of a USART/LEUART style controller.
// Transmit level stays asserted while armed: after each routine it is queued
// again until the engine disarms it.
type Stream struct {
	p    Pender
	step func(xfer.Source, byte)

	txl, txc, rx bool
	txlQueued    bool
	txcQueued    bool

	// Drain runs once the transmitter is empty, before transmit complete
	// is delivered. Ports that transmit whole buffers hook it.
	Drain func()
}

func NewStream(p Pender) *Stream { return &Stream{p: p} }

// Attach sets the interrupt entry point, normally (*xfer.Engine).Step.
func (s *Stream) Attach(step func(xfer.Source, byte)) { s.step = step }

func (s *Stream) ArmTxLevel(on bool) {
	s.txl = on
	if on {
		s.queueTxLevel()
	}
}

func (s *Stream) ArmTxComplete(on bool) {
	s.txc = on
	if on && !s.txcQueued {
		s.txcQueued = true
		s.p.Pend(s.txComplete)
	}
}

func (s *Stream) ArmRx(on bool) { s.rx = on }

// RxArmed reports the receive enable.
func (s *Stream) RxArmed() bool { return s.rx }

func (s *Stream) queueTxLevel() {
	if s.txlQueued {
		return
	}
	s.txlQueued = true
	s.p.Pend(s.txLevel)
}

func (s *Stream) txLevel() {
	s.txlQueued = false
	if !s.txl || s.step == nil {
		return
	}
	s.step(xfer.SrcTxLevel, 0)
	if s.txl {
		s.queueTxLevel()
	}
}

func (s *Stream) txComplete() {
	s.txcQueued = false
	if s.Drain != nil {
		s.Drain()
	}
	if !s.txc || s.step == nil {
		return
	}
	s.step(xfer.SrcTxComplete, 0)
}

// Receive queues one received byte from the main goroutine.
func (s *Stream) Receive(b byte) {
	s.p.Pend(func() { s.Received(b) })
}

// Received is the receive routine body. Sources on other goroutines raise a
// routine that calls it. The byte is dropped while the receiver is disarmed.
func (s *Stream) Received(b byte) {
	if !s.rx || s.step == nil {
		return
	}
	s.step(xfer.SrcRxData, b)
}
