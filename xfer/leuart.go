package xfer

import (
	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
	"beaconcode-go/x/ring"
)

// RxConfig routes bytes received outside of any transfer.
type RxConfig struct {
	Ring  *ring.Ring
	Event sched.Event // posted after each stored byte; None stays silent
}

// UART is a write-only LEUART engine with a receive side channel.
type UART struct {
	*Engine
	lp *leuartProto
}

type leuartProto struct {
	hw StreamPort
	rx RxConfig
}

// NewLEUART returns the engine for one LEUART. Received bytes are stored in
// rx.Ring whether or not a transfer is in flight.
func NewLEUART(id string, hw StreamPort, mode sleep.Mode, d Deps, rx RxConfig) *UART {
	p := &leuartProto{hw: hw, rx: rx}
	u := &UART{Engine: newEngine(id, p, mode, d), lp: p}
	hw.ArmRx(rx.Ring != nil)
	return u
}

// ReadRx drains received bytes into dst.
func (u *UART) ReadRx(dst []byte) int {
	if u.lp.rx.Ring == nil {
		return 0
	}
	return u.lp.rx.Ring.Read(dst)
}

// RxDrops counts bytes lost to a full receive ring.
func (u *UART) RxDrops() uint32 {
	if u.lp.rx.Ring == nil {
		return 0
	}
	return u.lp.rx.Ring.Drops()
}

func (p *leuartProto) table() Table { return Table{WriteOnly: true} }

func (p *leuartProto) reset(*Engine) {
	p.hw.ArmTxLevel(false)
	p.hw.ArmTxComplete(false)
}

func (p *leuartProto) begin(e *Engine) {
	e.phase = WriteData
	p.hw.ArmTxLevel(true)
}

func (p *leuartProto) step(e *Engine, src Source, data byte) {
	switch src {
	case SrcTxLevel:
		if e.phase != WriteData || e.sent == e.req.Count {
			e.unexpected(src)
			return
		}
		p.hw.Send(e.req.Buf[e.sent])
		e.sent++
		if e.sent == e.req.Count {
			p.hw.ArmTxLevel(false)
			p.hw.ArmTxComplete(true)
		}
	case SrcTxComplete:
		if e.phase != WriteData || e.sent != e.req.Count {
			e.unexpected(src)
			return
		}
		p.hw.ArmTxComplete(false)
		e.complete()
	case SrcRxData:
		p.receive(e, data)
	default:
		e.unexpected(src)
	}
}

func (p *leuartProto) receive(e *Engine, b byte) {
	if p.rx.Ring == nil {
		errcode.Fatal("xfer."+e.id, errcode.UnexpectedIRQ, "rxdata with receive disabled")
		return
	}
	if !p.rx.Ring.Put(b) {
		return
	}
	e.d.Sched.Post(p.rx.Event)
}

func (p *leuartProto) end(*Engine) {}
