//go:build !rp2040

package host

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/goburrow/serial"

	"beaconcode-go/platform/port"
)

// SerialRadio is a LEUART port wired to a real HM-10 on a USB serial
// adapter. Bytes are collected until the transfer drains, then written in
// one go; a reader goroutine raises received bytes. It implements
// xfer.StreamPort.
type SerialRadio struct {
	*port.Stream
	core   *port.Core
	dev    io.ReadWriteCloser
	buf    []byte
	errors uint32
}

// OpenSerialRadio opens path at baud, 8N1, the HM-10 factory framing.
func OpenSerialRadio(core *port.Core, path string, baud int) (*SerialRadio, error) {
	p, err := serial.Open(&serial.Config{
		Address:  path,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return NewSerialRadio(core, p), nil
}

func NewSerialRadio(core *port.Core, dev io.ReadWriteCloser) *SerialRadio {
	r := &SerialRadio{Stream: port.NewStream(core), core: core, dev: dev}
	r.Drain = r.drained
	return r
}

func (r *SerialRadio) Send(b byte) { r.buf = append(r.buf, b) }

func (r *SerialRadio) Flush() { r.buf = r.buf[:0] }

func (r *SerialRadio) drained() {
	if len(r.buf) > 0 {
		if _, err := r.dev.Write(r.buf); err != nil {
			r.errors++
			println("[serial] write:", err.Error())
		}
		r.buf = r.buf[:0]
	}
}

// Errors counts failed writes.
func (r *SerialRadio) Errors() uint32 { return r.errors }

// Listen reads until ctx ends or the port fails, raising one receive
// routine per byte. Run it on its own goroutine.
func (r *SerialRadio) Listen(ctx context.Context) error {
	var in [32]byte
	for {
		n, err := r.dev.Read(in[:])
		for _, b := range in[:n] {
			r.core.Raise(func() { r.Received(b) })
		}
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err == nil, errors.Is(err, serial.ErrTimeout):
		default:
			return err
		}
	}
}

func (r *SerialRadio) Close() error { return r.dev.Close() }
