//go:build rp2040

// Package rp2 maps the board's controller ports onto a Raspberry Pi Pico.
//
// The RP2040 peripherals are driven through TinyGo's blocking machine API
// and uartx. Each port turns the engine's command stream into whole bus
// transactions and raises the interrupt sources the engine expects when
// they complete, so the firmware above runs unchanged.
package rp2

import (
	"machine"

	"beaconcode-go/irq"
	"beaconcode-go/xfer"
)

// maxWrite bounds the data bytes of one register write.
const maxWrite = 16

type i2cOp struct {
	addr uint16
	w, r []byte
	then func()
}

// I2C is an xfer.I2CPort over machine.I2C. Writes are buffered until STOP
// and issued as one transaction; reads fetch one register per data byte,
// advancing the register address the way auto-incrementing targets do.
// A transaction the target refuses is logged and never completes, leaving
// the stall to the transfer watchdog.
type I2C struct {
	soft *irq.Soft
	hw   *machine.I2C
	step func(xfer.Source, byte)
	ops  chan i2cOp

	ien      uint32
	stopSeen bool
	inflight bool
	failures uint32

	addrNext bool
	read     bool
	regSet   bool
	addr     uint8
	reg      byte
	w        [1 + maxWrite]byte
	nw       int
	r        [1]byte
}

// NewI2C starts the worker that owns hw.
func NewI2C(soft *irq.Soft, hw *machine.I2C) *I2C {
	p := &I2C{soft: soft, hw: hw, ops: make(chan i2cOp, 1), ien: 1}
	go p.loop()
	return p
}

func (p *I2C) loop() {
	for op := range p.ops {
		if err := p.hw.Tx(op.addr, op.w, op.r); err != nil {
			msg := err.Error()
			p.soft.Raise(func() {
				p.inflight = false
				p.failures++
				println("[i2c] tx failed:", msg)
			})
			continue
		}
		p.soft.Raise(op.then)
	}
}

func (p *I2C) Attach(step func(xfer.Source, byte)) { p.step = step }

// Failures counts refused transactions.
func (p *I2C) Failures() uint32 { return p.failures }

// deliver runs in interrupt context.
func (p *I2C) deliver(src xfer.Source, data byte) {
	if p.ien != 0 && p.step != nil {
		p.step(src, data)
	}
}

func (p *I2C) pend(src xfer.Source) {
	p.soft.Pend(func() { p.deliver(src, 0) })
}

func (p *I2C) submit(op i2cOp) {
	p.inflight = true
	then := op.then
	op.then = func() {
		p.inflight = false
		then()
	}
	p.ops <- op
}

func (p *I2C) Idle() bool { return !p.inflight }

func (p *I2C) Start() { p.addrNext = true }

func (p *I2C) Send(b byte) {
	switch {
	case p.addrNext:
		p.addrNext = false
		p.addr = b >> 1
		p.read = b&1 == 1
		if p.read {
			p.fetch(true)
			return
		}
		p.nw, p.regSet = 0, false
		p.pend(xfer.SrcAck)
	case !p.regSet:
		p.reg, p.regSet = b, true
		p.pend(xfer.SrcAck)
	case p.nw < maxWrite:
		p.w[1+p.nw] = b
		p.nw++
		p.pend(xfer.SrcAck)
	default:
		println("[i2c] write too long")
	}
}

// fetch reads the register under the pointer. The first byte after the
// repeated start also carries the address ACK.
func (p *I2C) fetch(first bool) {
	p.w[0] = p.reg
	p.reg++
	p.submit(i2cOp{addr: uint16(p.addr), w: p.w[:1], r: p.r[:], then: func() {
		if first {
			p.deliver(xfer.SrcAck, 0)
		}
		p.deliver(xfer.SrcRxData, p.r[0])
	}})
}

func (p *I2C) Ack() {
	if p.read {
		p.fetch(false)
	}
}

func (p *I2C) Nack() {}

func (p *I2C) Stop() {
	if p.read || !p.regSet {
		p.release()
		p.pend(xfer.SrcStop)
		return
	}
	p.w[0] = p.reg
	op := i2cOp{addr: uint16(p.addr), w: p.w[:1+p.nw], then: func() { p.deliver(xfer.SrcStop, 0) }}
	p.release()
	p.submit(op)
}

func (p *I2C) release() {
	p.addrNext, p.read, p.regSet = false, false, false
}

func (p *I2C) Abort() { p.release() }

func (p *I2C) SaveIRQ() uint32 {
	s := p.ien
	p.ien = 0
	return s
}

func (p *I2C) RestoreIRQ(saved uint32) { p.ien = saved }

func (p *I2C) ClearFlags() { p.stopSeen = false }

// StartStop has nothing to resynchronise on this controller; machine.I2C
// ends every transaction with STOP.
func (p *I2C) StartStop() {
	p.release()
	p.stopSeen = true
}

func (p *I2C) StopSeen() bool { return p.stopSeen }
