package host

import "beaconcode-go/platform/port"

// Slave is a full-duplex SPI peripheral model. Exchange sees every frame
// between select and deselect, indexed from zero.
type Slave interface {
	Select(on bool)
	Exchange(i int, out byte) (in byte)
}

// SPI models a synchronous USART with one slave. It implements xfer.SPIPort.
type SPI struct {
	*port.Stream
	slave  Slave
	frame  int
	frames uint32
}

func NewSPI(core *port.Core, slave Slave) *SPI {
	return &SPI{Stream: port.NewStream(core), slave: slave}
}

func (p *SPI) Select(on bool) {
	p.frame = 0
	p.slave.Select(on)
}

func (p *SPI) Send(b byte) {
	in := p.slave.Exchange(p.frame, b)
	p.frame++
	p.frames++
	p.Receive(in)
}

func (p *SPI) Flush() {}

// Frames counts bytes clocked since start.
func (p *SPI) Frames() uint32 { return p.frames }
