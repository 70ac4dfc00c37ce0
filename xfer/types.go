// Package xfer drives interrupt-paced bus transfers to completion.
//
// One Engine exists per physical bus. A caller starts a Request while the
// engine is idle; from then on the platform's interrupt layer decodes each
// hardware interrupt source and feeds it to Step. Step is pure transition
// logic plus the next hardware command. When the transfer finishes the
// engine clears busy, releases its energy-mode block and posts the request's
// completion event.
//
// The I2C, SPI and LEUART variants share the engine and differ only in their
// phase table and protocol hooks.
package xfer

import (
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
)

// Dir is the transfer direction.
type Dir uint8

const (
	Write Dir = iota
	Read
)

func (d Dir) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Request describes one full transfer. Buf is owned by the engine from a
// successful start until the Done event is observed.
type Request struct {
	Dir   Dir
	Addr  uint8 // 7-bit peer address; ignored without an address phase
	Reg   uint8 // register/command byte; ignored without a register phase
	Buf   []byte
	Count int
	Done  sched.Event
}

// Phase is the engine's position within a transfer.
type Phase uint8

const (
	Idle Phase = iota
	Address
	Register
	Restart
	ReadData
	WriteData
	Stop
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Address:
		return "address"
	case Register:
		return "register"
	case Restart:
		return "restart"
	case ReadData:
		return "read"
	case WriteData:
		return "write"
	case Stop:
		return "stop"
	case Done:
		return "done"
	}
	return "?"
}

// Source is a decoded interrupt source.
type Source uint8

const (
	SrcAck        Source = iota + 1 // I2C: peer acknowledged
	SrcRxData                       // a received byte is available
	SrcStop                         // I2C: stop condition completed
	SrcTxLevel                      // transmit buffer has room
	SrcTxComplete                   // shift register drained
)

func (s Source) String() string {
	switch s {
	case SrcAck:
		return "ack"
	case SrcRxData:
		return "rxdata"
	case SrcStop:
		return "mstop"
	case SrcTxLevel:
		return "txbl"
	case SrcTxComplete:
		return "txc"
	}
	return "?"
}

// Table is a protocol's phase table.
type Table struct {
	Address    bool // peer address phase with R/W bit
	Register   bool // register/command byte precedes data
	Restart    bool // reads change direction with a repeated start
	ChipSelect bool // frame is bracketed by chip-select instead of start/stop
	StopPhase  bool // completion is confirmed by a stop interrupt
	WriteOnly  bool // no read direction
}

// Blocker is the energy-mode gate used to bracket a transfer.
type Blocker interface {
	Block(m sleep.Mode)
	Unblock(m sleep.Mode)
}

// Poster receives completion events.
type Poster interface {
	Post(e sched.Event)
}
