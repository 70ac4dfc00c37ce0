//go:build rp2040

package rp2

import (
	"machine"

	"beaconcode-go/irq"
	"beaconcode-go/platform/port"
)

// SPI is an xfer.SPIPort over machine.SPI with a GPIO chip select. Each
// frame is a blocking one-byte transfer; the byte clocked in is delivered as
// a receive interrupt.
type SPI struct {
	*port.Stream
	hw *machine.SPI
	cs machine.Pin
}

func NewSPI(soft *irq.Soft, hw *machine.SPI, cs machine.Pin) *SPI {
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cs.High()
	return &SPI{Stream: port.NewStream(soft), hw: hw, cs: cs}
}

func (p *SPI) Select(on bool) {
	if on {
		p.cs.Low()
	} else {
		p.cs.High()
	}
}

func (p *SPI) Send(b byte) {
	in, err := p.hw.Transfer(b)
	if err != nil {
		println("[spi] transfer:", err.Error())
		return
	}
	p.Receive(in)
}

func (p *SPI) Flush() {}
