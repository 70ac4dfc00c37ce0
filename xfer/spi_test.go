package xfer

import (
	"bytes"
	"testing"

	"beaconcode-go/errcode"
	"beaconcode-go/sleep"
)

func newTestSPI() (*Engine, *fakeStream, *rig) {
	hw := &fakeStream{}
	r, d := newRig(nil)
	return NewSPI("spi1", hw, sleep.EM2, d), hw, r
}

func TestSPIRead(t *testing.T) {
	e, hw, r := newTestSPI()
	buf := make([]byte, 2)
	if err := e.TryStart(Request{Dir: Read, Reg: 0x2D, Buf: buf, Count: 2, Done: evDone}); err != nil {
		t.Fatal(err)
	}
	if !hw.selected || !hw.rx || !hw.txLevel {
		t.Fatalf("start: selected=%v rx=%v txl=%v", hw.selected, hw.rx, hw.txLevel)
	}
	e.Step(SrcTxLevel, 0)
	e.Step(SrcRxData, 0xFF) // register echo
	e.Step(SrcTxLevel, 0)
	e.Step(SrcRxData, 0x12)
	e.Step(SrcTxLevel, 0)
	if hw.txLevel {
		t.Fatalf("txlevel still armed after the last frame")
	}
	e.Step(SrcRxData, 0x34)

	if !bytes.Equal(hw.sent, []byte{0xAD, 0x00, 0x00}) {
		t.Fatalf("sent % x", hw.sent)
	}
	if !bytes.Equal(buf, []byte{0x12, 0x34}) {
		t.Fatalf("buf % x", buf)
	}
	if e.Busy() || hw.selected || !r.s.Has(evDone) || r.arb.Count(sleep.EM2) != 0 {
		t.Fatalf("not completed: busy=%v cs=%v pending=%#x", e.Busy(), hw.selected, r.s.Pending())
	}
}

func TestSPIWrite(t *testing.T) {
	e, hw, r := newTestSPI()
	data := []byte{0x28, 0x07}
	if err := e.TryStart(Request{Dir: Write, Reg: 0x06, Buf: data, Count: 2, Done: evDone}); err != nil {
		t.Fatal(err)
	}
	if hw.rx {
		t.Fatalf("receive armed for a write")
	}
	e.Step(SrcTxLevel, 0)
	e.Step(SrcTxLevel, 0)
	e.Step(SrcTxLevel, 0)
	if !hw.txDone || hw.txLevel {
		t.Fatalf("txc=%v txl=%v after the last byte", hw.txDone, hw.txLevel)
	}
	if e.Phase() != WriteData || !e.Busy() {
		t.Fatalf("completed before the shift register drained")
	}
	e.Step(SrcTxComplete, 0)
	if !bytes.Equal(hw.sent, []byte{0x06, 0x28, 0x07}) {
		t.Fatalf("sent % x", hw.sent)
	}
	if e.Busy() || hw.selected || !r.s.Has(evDone) {
		t.Fatalf("busy=%v cs=%v", e.Busy(), hw.selected)
	}
}

func TestSPIExtraTxLevelIsFatal(t *testing.T) {
	e, _, _ := newTestSPI()
	_ = e.TryStart(Request{Dir: Write, Reg: 0x06, Buf: []byte{1}, Count: 1})
	e.Step(SrcTxLevel, 0)
	e.Step(SrcTxLevel, 0)
	expectFatal(t, errcode.UnexpectedIRQ, func() { e.Step(SrcTxLevel, 0) })
}

func TestSPIFaults(t *testing.T) {
	t.Run("txc before data", func(t *testing.T) {
		e, _, _ := newTestSPI()
		_ = e.TryStart(Request{Dir: Write, Reg: 0x06, Buf: []byte{1}, Count: 1})
		expectFatal(t, errcode.UnexpectedIRQ, func() { e.Step(SrcTxComplete, 0) })
	})
	t.Run("rxdata during a write", func(t *testing.T) {
		e, _, _ := newTestSPI()
		_ = e.TryStart(Request{Dir: Write, Reg: 0x06, Buf: []byte{1}, Count: 1})
		e.Step(SrcTxLevel, 0)
		expectFatal(t, errcode.UnexpectedIRQ, func() { e.Step(SrcRxData, 0) })
	})
	t.Run("ack is not an spi source", func(t *testing.T) {
		e, _, _ := newTestSPI()
		expectFatal(t, errcode.UnexpectedIRQ, func() { e.Step(SrcAck, 0) })
	})
}

func TestSPITable(t *testing.T) {
	e, _, _ := newTestSPI()
	tb := e.Table()
	if tb.Address || tb.Restart || !tb.ChipSelect || !tb.Register {
		t.Fatalf("table = %+v", tb)
	}
}
