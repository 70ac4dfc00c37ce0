package xfer

import (
	"testing"

	"beaconcode-go/errcode"
)

func TestWatchdogStall(t *testing.T) {
	e, _, _ := newTestI2C()
	w := NewWatchdog(2, e)
	w.Check() // idle
	_ = e.TryStart(Request{Dir: Read, Addr: 0x55, Buf: []byte{0}, Count: 1})
	w.Check() // first sighting
	w.Check()
	w.Check()
	if w.Age(0) != 2 {
		t.Fatalf("age = %d", w.Age(0))
	}
	expectFatal(t, errcode.Timeout, w.Check)
}

func TestWatchdogProgressResetsAge(t *testing.T) {
	e, _, _ := newTestI2C()
	w := NewWatchdog(1, e)
	req := Request{Dir: Read, Addr: 0x55, Buf: []byte{0}, Count: 1}
	for i := 0; i < 5; i++ {
		_ = e.TryStart(req)
		w.Check()
		w.Check()
		e.Step(SrcAck, 0)
		e.Step(SrcAck, 0)
		e.Step(SrcRxData, 0)
		e.Step(SrcStop, 0)
		w.Check()
		if w.Age(0) != 0 {
			t.Fatalf("round %d: age = %d", i, w.Age(0))
		}
	}
}

func TestWatchdogDisabled(t *testing.T) {
	e, _, _ := newTestI2C()
	w := NewWatchdog(0, e)
	_ = e.TryStart(Request{Dir: Read, Addr: 0x55, Buf: []byte{0}, Count: 1})
	for i := 0; i < 100; i++ {
		w.Check()
	}
}

func TestRegistry(t *testing.T) {
	i2c, _, _ := newTestI2C()
	spi, _, _ := newTestSPI()
	r := NewRegistry()
	if err := r.Add(i2c); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(spi); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(i2c); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("duplicate: %v", err)
	}
	_ = i2c.TryStart(Request{Dir: Read, Addr: 0x55, Buf: []byte{0}, Count: 1})
	if !r.IsBusy("i2c0") || r.IsBusy("spi1") || r.IsBusy("nope") {
		t.Fatalf("IsBusy wrong")
	}
	r.Step("i2c0", SrcAck, 0)
	if i2c.Phase() != Register {
		t.Fatalf("Step not routed: %v", i2c.Phase())
	}
	expectFatal(t, errcode.UnexpectedIRQ, func() { r.Step("uart9", SrcAck, 0) })
	if got := len(r.Engines()); got != 2 {
		t.Fatalf("engines = %d", got)
	}
}
