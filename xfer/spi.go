package xfer

import (
	"beaconcode-go/errcode"
	"beaconcode-go/sleep"
)

const (
	spiReadBit = 0x80
	spiDummy   = 0x00
)

// StreamPort is the command surface of a USART/LEUART style controller.
type StreamPort interface {
	Send(b byte)
	ArmTxLevel(on bool)
	ArmTxComplete(on bool)
	ArmRx(on bool)
	// Flush clears the transmit and receive buffers.
	Flush()
}

// SPIPort adds software chip-select to a synchronous USART.
type SPIPort interface {
	StreamPort
	Select(on bool)
}

// spiProto frames a register access as: chip select, register byte with the
// read bit, Count data or dummy bytes, chip deselect. The byte clocked in
// while the register goes out is discarded.
type spiProto struct{ hw SPIPort }

// NewSPI returns the engine for one SPI controller with one peripheral.
func NewSPI(id string, hw SPIPort, mode sleep.Mode, d Deps) *Engine {
	return newEngine(id, &spiProto{hw: hw}, mode, d)
}

func (p *spiProto) table() Table {
	return Table{Register: true, ChipSelect: true}
}

func (p *spiProto) reset(*Engine) { p.hw.Flush() }

func (p *spiProto) frames(e *Engine) int { return e.req.Count + 1 }

func (p *spiProto) begin(e *Engine) {
	e.phase = Register
	p.hw.Select(true)
	p.hw.ArmRx(e.req.Dir == Read)
	p.hw.ArmTxLevel(true)
}

func (p *spiProto) step(e *Engine, src Source, data byte) {
	switch src {
	case SrcTxLevel:
		p.txLevel(e)
	case SrcTxComplete:
		if e.phase != WriteData || e.sent != p.frames(e) {
			e.unexpected(src)
			return
		}
		p.hw.ArmTxComplete(false)
		e.complete()
	case SrcRxData:
		p.rxData(e, data)
	default:
		e.unexpected(src)
	}
}

func (p *spiProto) txLevel(e *Engine) {
	switch e.phase {
	case Register:
		reg := e.req.Reg
		if e.req.Dir == Read {
			reg |= spiReadBit
			e.phase = ReadData
		} else {
			e.phase = WriteData
		}
		p.send(e, reg)
	case WriteData:
		if !e.expectDir(Write) {
			return
		}
		if e.sent == p.frames(e) {
			e.unexpected(SrcTxLevel)
			return
		}
		p.send(e, e.req.Buf[e.sent-1])
	case ReadData:
		if !e.expectDir(Read) {
			return
		}
		if e.sent == p.frames(e) {
			e.unexpected(SrcTxLevel)
			return
		}
		p.send(e, spiDummy)
	default:
		e.unexpected(SrcTxLevel)
	}
}

// send clocks one frame out; after the last frame the transmit-level source
// is disarmed and writes wait for the shift register to drain.
func (p *spiProto) send(e *Engine, b byte) {
	p.hw.Send(b)
	e.sent++
	if e.sent == p.frames(e) {
		p.hw.ArmTxLevel(false)
		if e.req.Dir == Write {
			p.hw.ArmTxComplete(true)
		}
	}
}

func (p *spiProto) rxData(e *Engine, data byte) {
	if e.phase != ReadData {
		e.unexpected(SrcRxData)
		return
	}
	if e.recvd > 0 {
		e.req.Buf[e.recvd-1] = data
	}
	e.recvd++
	if e.recvd == p.frames(e) {
		errcode.Assert(e.sent == p.frames(e), "xfer."+e.id, errcode.UnexpectedIRQ, "rx ran ahead of tx")
		p.hw.ArmRx(false)
		e.complete()
	}
}

func (p *spiProto) end(e *Engine) {
	p.hw.Flush()
	p.hw.Select(false)
}
