package xfer

import (
	"context"

	"tinygo.org/x/drivers"

	"beaconcode-go/errcode"
)

// I2CConn runs register transactions on an I2C engine and waits for them.
// It lets blocking driver code (configuration handshakes) share the bus with
// the asynchronous paths; the busy gate serialises the two.
type I2CConn struct {
	ctx context.Context
	e   *Engine
}

var _ drivers.I2C = (*I2CConn)(nil)

func NewI2CConn(ctx context.Context, e *Engine) *I2CConn {
	if ctx == nil {
		ctx = context.Background()
	}
	return &I2CConn{ctx: ctx, e: e}
}

// Tx performs one register transaction. w[0] is the register; the rest of w
// is written after it. A non-empty r reads len(r) bytes from the register and
// then w must hold only the register.
func (c *I2CConn) Tx(addr uint16, w, r []byte) error {
	const op = "xfer.i2c.tx"
	if len(w) == 0 {
		return errcode.New(op, errcode.Unsupported, "raw read without register")
	}
	if addr > 0x7F {
		return errcode.New(op, errcode.InvalidParams, "address exceeds 7 bits")
	}
	req := Request{Addr: uint8(addr), Reg: w[0]}
	switch {
	case len(r) == 0:
		req.Dir, req.Buf, req.Count = Write, w[1:], len(w)-1
	case len(w) == 1:
		req.Dir, req.Buf, req.Count = Read, r, len(r)
	default:
		return errcode.New(op, errcode.Unsupported, "combined write and read")
	}
	return run(c.ctx, c.e, req)
}

// SPIConn runs framed register transactions on an SPI engine and waits for
// them. Frames follow the engine's layout: w[0] carries the register with bit
// 7 set for reads, and r[0] receives the echo of that byte.
type SPIConn struct {
	ctx context.Context
	e   *Engine
}

var _ drivers.SPI = (*SPIConn)(nil)

func NewSPIConn(ctx context.Context, e *Engine) *SPIConn {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SPIConn{ctx: ctx, e: e}
}

func (c *SPIConn) Tx(w, r []byte) error {
	const op = "xfer.spi.tx"
	if len(w) == 0 {
		return errcode.New(op, errcode.InvalidParams, "empty frame")
	}
	if w[0]&spiReadBit == 0 {
		if len(r) != 0 && len(r) != len(w) {
			return errcode.New(op, errcode.InvalidParams, "length mismatch")
		}
		req := Request{Dir: Write, Reg: w[0], Buf: w[1:], Count: len(w) - 1}
		if err := run(c.ctx, c.e, req); err != nil {
			return err
		}
		for i := range r {
			r[i] = 0
		}
		return nil
	}
	if len(r) < 2 || (len(w) != 1 && len(w) != len(r)) {
		return errcode.New(op, errcode.InvalidParams, "read frame needs a data byte")
	}
	req := Request{Dir: Read, Reg: w[0] &^ spiReadBit, Buf: r[1:], Count: len(r) - 1}
	if err := run(c.ctx, c.e, req); err != nil {
		return err
	}
	r[0] = 0
	return nil
}

// Transfer is not supported: the engine only clocks register frames.
func (c *SPIConn) Transfer(b byte) (byte, error) {
	return 0, errcode.New("xfer.spi.transfer", errcode.Unsupported, "single byte transfer")
}

func run(ctx context.Context, e *Engine, req Request) error {
	if err := e.Start(ctx, req); err != nil {
		return err
	}
	return e.Wait(ctx)
}
