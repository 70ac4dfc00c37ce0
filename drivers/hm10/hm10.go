// Package hm10 drives the HM-10 BLE module attached to a LEUART.
//
// Outgoing strings are sent asynchronously from a driver-owned buffer; the
// configured event is posted once the last bit has left the shift register.
// Test runs the module's AT handshake and programs its advertised name.
package hm10

import (
	"context"

	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sched"
	"beaconcode-go/xfer"
)

// MaxMessage bounds one asynchronous write.
const MaxMessage = 80

// MaxName is the longest name the module accepts.
const MaxName = 12

// Link is the LEUART engine the module hangs off.
type Link interface {
	Start(ctx context.Context, r xfer.Request) error
	Wait(ctx context.Context) error
	ReadRx(p []byte) int
}

type Device struct {
	link   Link
	wait   irq.Waiter
	txDone sched.Event

	tx [MaxMessage]byte
	rx [32]byte
}

// New returns a device that posts txDone after each Write.
func New(link Link, wait irq.Waiter, txDone sched.Event) *Device {
	return &Device{link: link, wait: wait, txDone: txDone}
}

// Write copies s into the transmit buffer and starts sending it. It waits
// for a previous write to drain first, since the buffer is shared.
func (d *Device) Write(ctx context.Context, s string) error {
	const op = "hm10.write"
	if len(s) == 0 {
		return nil
	}
	if len(s) > len(d.tx) {
		return errcode.New(op, errcode.InvalidParams, "message too long")
	}
	if err := d.link.Wait(ctx); err != nil {
		return errcode.Wrap(op, err)
	}
	n := copy(d.tx[:], s)
	return errcode.Wrap(op, d.link.Start(ctx, xfer.Request{
		Dir:   xfer.Write,
		Buf:   d.tx[:n],
		Count: n,
		Done:  d.txDone,
	}))
}

// Test checks the module answers AT commands, sets its name and resets it.
// Replies that differ from the expected text return false with
// errcode.Handshake; ctx bounds the wait for each reply.
func (d *Device) Test(ctx context.Context, name string) (bool, error) {
	const op = "hm10.test"
	if name == "" || len(name) > MaxName {
		return false, errcode.New(op, errcode.InvalidParams, "bad module name")
	}
	d.drain()
	steps := [...]struct{ cmd, want string }{
		{"AT", "OK"},
		{"AT+NAME" + name, "OK+Set" + name},
		{"AT+RESET", "OK+RESET"},
	}
	for _, s := range steps {
		if err := d.send(ctx, s.cmd); err != nil {
			return false, errcode.Wrap(op, err)
		}
		got, err := d.expect(ctx, len(s.want))
		if err != nil {
			return false, errcode.Wrap(op, err)
		}
		if got != s.want {
			return false, errcode.New(op, errcode.Handshake, s.cmd+": got "+got)
		}
	}
	return true, nil
}

// send writes cmd without a completion event and waits for it to drain.
func (d *Device) send(ctx context.Context, cmd string) error {
	if err := d.link.Wait(ctx); err != nil {
		return err
	}
	n := copy(d.tx[:], cmd)
	if err := d.link.Start(ctx, xfer.Request{Dir: xfer.Write, Buf: d.tx[:n], Count: n}); err != nil {
		return err
	}
	return d.link.Wait(ctx)
}

// expect collects exactly n reply bytes.
func (d *Device) expect(ctx context.Context, n int) (string, error) {
	if n > len(d.rx) {
		n = len(d.rx)
	}
	got := 0
	for got < n {
		got += d.link.ReadRx(d.rx[got:n])
		if got == n {
			break
		}
		if err := ctx.Err(); err != nil {
			return string(d.rx[:got]), errcode.New("hm10.expect", errcode.Timeout, "reply incomplete")
		}
		d.wait.Relax()
	}
	return string(d.rx[:n]), nil
}

// drain discards stale bytes, such as a connection notice.
func (d *Device) drain() {
	for d.link.ReadRx(d.rx[:]) > 0 {
	}
}
