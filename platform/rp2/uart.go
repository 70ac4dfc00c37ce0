//go:build rp2040

package rp2

import (
	"context"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"beaconcode-go/irq"
	"beaconcode-go/platform/port"
)

// UART stands in for the LEUART: an xfer.StreamPort over uartx. Transfers
// are written when the engine drains its buffer; a reader goroutine raises
// one receive interrupt per byte.
type UART struct {
	*port.Stream
	soft *irq.Soft
	hw   *uartx.UART
	buf  []byte
}

func NewUART(soft *irq.Soft, hw *uartx.UART) *UART {
	u := &UART{Stream: port.NewStream(soft), soft: soft, hw: hw}
	u.Drain = u.drained
	return u
}

func (u *UART) Send(b byte) { u.buf = append(u.buf, b) }

func (u *UART) Flush() { u.buf = u.buf[:0] }

func (u *UART) drained() {
	if len(u.buf) == 0 {
		return
	}
	if _, err := u.hw.Write(u.buf); err != nil {
		println("[uart] write:", err.Error())
	}
	u.buf = u.buf[:0]
}

// Listen receives until ctx ends. Run it on its own goroutine.
func (u *UART) Listen(ctx context.Context) error {
	var in [16]byte
	for {
		n, err := u.hw.RecvSomeContext(ctx, in[:])
		for _, b := range in[:n] {
			u.soft.Raise(func() { u.Received(b) })
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
