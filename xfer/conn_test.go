package xfer

import (
	"bytes"
	"context"
	"testing"

	"beaconcode-go/errcode"
	"beaconcode-go/sleep"
)

// newLoopbackI2C answers an I2CConn from the spin loop, acting as the interrupt layer.
func newLoopbackI2C(t *testing.T, reply []byte) (*I2CConn, *Engine, *fakeI2C) {
	t.Helper()
	hw := &fakeI2C{}
	var e *Engine
	_, d := newRig(relaxFunc(func() {
		req := e.Active()
		e.Step(SrcAck, 0)
		e.Step(SrcAck, 0)
		if req.Dir == Read {
			for i := 0; i < req.Count; i++ {
				e.Step(SrcRxData, reply[i])
			}
		} else {
			for i := 0; i < req.Count; i++ {
				e.Step(SrcAck, 0)
			}
		}
		e.Step(SrcStop, 0)
	}))
	e = NewI2C("i2c0", hw, sleep.EM2, d)
	return NewI2CConn(context.Background(), e), e, hw
}

func TestI2CConnRead(t *testing.T) {
	c, e, _ := newLoopbackI2C(t, []byte{0x42, 0x43})
	r := make([]byte, 2)
	if err := c.Tx(0x55, []byte{0x11}, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r, []byte{0x42, 0x43}) || e.Busy() {
		t.Fatalf("r=% x busy=%v", r, e.Busy())
	}
	if a := e.Active(); a.Reg != 0x11 || a.Addr != 0x55 || a.Dir != Read {
		t.Fatalf("request = %+v", a)
	}
}

func TestI2CConnWrite(t *testing.T) {
	c, e, hw := newLoopbackI2C(t, nil)
	if err := c.Tx(0x55, []byte{0x0A, 0x0B}, nil); err != nil {
		t.Fatal(err)
	}
	if e.Sent() != 1 || e.Busy() {
		t.Fatalf("sent=%d busy=%v", e.Sent(), e.Busy())
	}
	last := hw.ops[len(hw.ops)-1]
	if last != "stop" {
		t.Fatalf("last op %q", last)
	}
}

func TestI2CConnRejects(t *testing.T) {
	c, _, _ := newLoopbackI2C(t, nil)
	if err := c.Tx(0x55, nil, make([]byte, 1)); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("raw read: %v", err)
	}
	if err := c.Tx(0x55, []byte{1, 2}, make([]byte, 1)); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("combined: %v", err)
	}
	if err := c.Tx(0x100, []byte{1}, nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("wide address: %v", err)
	}
}

func newLoopbackSPI(reply []byte) (*SPIConn, *Engine, *fakeStream) {
	hw := &fakeStream{}
	var e *Engine
	_, d := newRig(relaxFunc(func() {
		req := e.Active()
		frames := req.Count + 1
		for i := 0; i < frames; i++ {
			e.Step(SrcTxLevel, 0)
			if req.Dir == Read {
				var b byte = 0xFF
				if i > 0 {
					b = reply[i-1]
				}
				e.Step(SrcRxData, b)
			}
		}
		if req.Dir == Write {
			e.Step(SrcTxComplete, 0)
		}
	}))
	e = NewSPI("spi1", hw, sleep.EM2, d)
	return NewSPIConn(context.Background(), e), e, hw
}

func TestSPIConnReadFrame(t *testing.T) {
	c, e, hw := newLoopbackSPI([]byte{0x07})
	w := []byte{0x06 | 0x80, 0x00}
	r := make([]byte, 2)
	if err := c.Tx(w, r); err != nil {
		t.Fatal(err)
	}
	if r[1] != 0x07 || e.Busy() {
		t.Fatalf("r=% x", r)
	}
	if !bytes.Equal(hw.sent, []byte{0x86, 0x00}) {
		t.Fatalf("sent % x", hw.sent)
	}
}

func TestSPIConnWriteFrame(t *testing.T) {
	c, _, hw := newLoopbackSPI(nil)
	if err := c.Tx([]byte{0x06, 0x28}, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(hw.sent, []byte{0x06, 0x28}) {
		t.Fatalf("sent % x", hw.sent)
	}
	if _, err := c.Transfer(0); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("Transfer: %v", err)
	}
	if err := c.Tx([]byte{0x86}, []byte{0}); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("short read frame: %v", err)
	}
}
