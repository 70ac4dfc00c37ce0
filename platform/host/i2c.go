package host

import (
	"beaconcode-go/platform/port"
	"beaconcode-go/xfer"
)

// Target is a register-mapped I2C peripheral model.
type Target interface {
	Address() uint8
	ReadReg(reg byte) byte
	WriteReg(reg, v byte)
}

// I2C models a master controller with targets on its bus. It implements
// xfer.I2CPort; Attach connects its interrupt line.
type I2C struct {
	core    *port.Core
	targets map[uint8]Target
	step    func(xfer.Source, byte)

	ien      uint32
	stopSeen bool

	// wire state of the current transaction
	cur      Target
	addrNext bool
	read     bool
	regSet   bool
	ptr      byte
	nacks    uint32
}

const i2cIEN = 1

// NewI2C returns a controller with the given targets attached.
func NewI2C(core *port.Core, targets ...Target) *I2C {
	p := &I2C{core: core, targets: make(map[uint8]Target), ien: i2cIEN}
	for _, t := range targets {
		p.targets[t.Address()] = t
	}
	return p
}

func (p *I2C) Attach(step func(xfer.Source, byte)) { p.step = step }

// Detach removes the target at addr, as if it stopped answering.
func (p *I2C) Detach(addr uint8) { delete(p.targets, addr) }

// Nacks counts address phases nobody answered.
func (p *I2C) Nacks() uint32 { return p.nacks }

// deliver pends src. The enable is checked when the routine runs, as the
// NVIC would see it.
func (p *I2C) deliver(src xfer.Source, data byte) {
	p.core.Pend(func() {
		if p.ien == 0 || p.step == nil {
			return
		}
		p.step(src, data)
	})
}

func (p *I2C) Idle() bool { return true }

func (p *I2C) Start() { p.addrNext = true }

func (p *I2C) Send(b byte) {
	if p.addrNext {
		p.addrNext = false
		t, ok := p.targets[b>>1]
		if !ok {
			p.cur = nil
			p.nacks++
			println("[i2c] nack address", b>>1)
			return
		}
		p.cur = t
		p.read = b&1 == 1
		p.deliver(xfer.SrcAck, 0)
		if p.read {
			p.clockIn()
		}
		return
	}
	if p.cur == nil {
		return
	}
	if !p.regSet {
		p.ptr, p.regSet = b, true
	} else {
		p.cur.WriteReg(p.ptr, b)
		p.ptr++
	}
	p.deliver(xfer.SrcAck, 0)
}

// clockIn shifts the next register byte in from the target.
func (p *I2C) clockIn() {
	v := p.cur.ReadReg(p.ptr)
	p.ptr++
	p.deliver(xfer.SrcRxData, v)
}

func (p *I2C) Ack() {
	if p.cur != nil && p.read {
		p.clockIn()
	}
}

func (p *I2C) Nack() {}

func (p *I2C) Stop() {
	p.release()
	p.deliver(xfer.SrcStop, 0)
}

func (p *I2C) release() {
	p.cur, p.addrNext, p.read, p.regSet = nil, false, false, false
}

func (p *I2C) Abort() { p.release() }

func (p *I2C) SaveIRQ() uint32 {
	s := p.ien
	p.ien = 0
	return s
}

func (p *I2C) RestoreIRQ(saved uint32) { p.ien = saved }

func (p *I2C) ClearFlags() { p.stopSeen = false }

func (p *I2C) StartStop() {
	p.release()
	p.stopSeen = true
}

func (p *I2C) StopSeen() bool { return p.stopSeen }
