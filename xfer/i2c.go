package xfer

import (
	"beaconcode-go/errcode"
	"beaconcode-go/sleep"
)

const (
	rwWrite = 0
	rwRead  = 1

	// resetSpin bounds the wait for the dummy stop of a bus reset.
	resetSpin = 1 << 16
)

// I2CPort is the command surface of an I2C master controller.
type I2CPort interface {
	// Idle reports the controller's bus state machine is idle.
	Idle() bool

	Start()      // (repeated) START
	Send(b byte) // load the transmit register
	Ack()        // acknowledge the received byte
	Nack()       // refuse the received byte
	Stop()       // STOP

	// Bus reset primitives.
	Abort()
	SaveIRQ() uint32 // save and disable the controller's interrupt enables
	RestoreIRQ(saved uint32)
	ClearFlags() // clear pending flags and the transmit buffer
	StartStop()  // dummy START+STOP
	StopSeen() bool
}

type i2cProto struct{ hw I2CPort }

// NewI2C returns the engine for one I2C controller.
func NewI2C(id string, hw I2CPort, mode sleep.Mode, d Deps) *Engine {
	return newEngine(id, &i2cProto{hw: hw}, mode, d)
}

func (p *i2cProto) table() Table {
	return Table{Address: true, Register: true, Restart: true, StopPhase: true}
}

// reset resynchronises the controller with the wire before every transfer,
// covering a bus left mid-transaction by an earlier fault.
func (p *i2cProto) reset(e *Engine) {
	p.hw.Abort()
	saved := p.hw.SaveIRQ()
	p.hw.ClearFlags()
	p.hw.StartStop()
	for i := 0; !p.hw.StopSeen(); i++ {
		if i >= resetSpin {
			errcode.Fatal("xfer."+e.id, errcode.BusNotIdle, "reset stop never completed")
			return
		}
	}
	p.hw.ClearFlags()
	p.hw.Abort()
	p.hw.RestoreIRQ(saved)

	errcode.Assert(p.hw.Idle(), "xfer."+e.id, errcode.BusNotIdle, "controller not idle")
}

func (p *i2cProto) begin(e *Engine) {
	e.phase = Address
	p.hw.Start()
	p.hw.Send(e.req.Addr<<1 | rwWrite)
}

func (p *i2cProto) step(e *Engine, src Source, data byte) {
	switch src {
	case SrcAck:
		p.ack(e)
	case SrcRxData:
		p.rxData(e, data)
	case SrcStop:
		if e.phase != Stop {
			e.unexpected(src)
			return
		}
		e.complete()
	default:
		e.unexpected(src)
	}
}

func (p *i2cProto) ack(e *Engine) {
	switch e.phase {
	case Address:
		e.phase = Register
		p.hw.Send(e.req.Reg)
	case Register:
		if e.req.Dir == Read {
			e.phase = Restart
			p.hw.Start()
			p.hw.Send(e.req.Addr<<1 | rwRead)
			return
		}
		e.phase = WriteData
		p.writeNext(e)
	case Restart:
		if !e.expectDir(Read) {
			return
		}
		e.phase = ReadData
	case WriteData:
		if !e.expectDir(Write) {
			return
		}
		p.writeNext(e)
	case ReadData:
		// The controller may latch an ACK flag while clocking in data.
	default:
		e.unexpected(SrcAck)
	}
}

func (p *i2cProto) writeNext(e *Engine) {
	if e.sent == e.req.Count {
		e.phase = Stop
		p.hw.Stop()
		return
	}
	p.hw.Send(e.req.Buf[e.sent])
	e.sent++
}

// rxData also accepts the first byte straight after the repeated start: some
// controllers do not flag the read-address ACK separately when data follows.
func (p *i2cProto) rxData(e *Engine, data byte) {
	if e.phase != ReadData && e.phase != Restart {
		e.unexpected(SrcRxData)
		return
	}
	if !e.expectDir(Read) {
		return
	}
	e.phase = ReadData
	e.req.Buf[e.recvd] = data
	e.recvd++
	if e.recvd == e.req.Count {
		e.phase = Stop
		p.hw.Nack()
		p.hw.Stop()
		return
	}
	p.hw.Ack()
}

func (p *i2cProto) end(*Engine) {}
