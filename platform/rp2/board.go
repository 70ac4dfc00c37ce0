//go:build rp2040

package rp2

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"beaconcode-go/board"
	"beaconcode-go/config"
	"beaconcode-go/platform/port"
	"beaconcode-go/timer"
)

// Pin plan on a Pico. Si1133 on i2c1, ICM-20648 on spi0, HM-10 on uart1.
const (
	imuCS   = machine.GP17
	radioTX = machine.GP4
	radioRX = machine.GP5

	radioBaud = 9600
	irqQueue  = 32
)

// Pico is the assembled hardware.
type Pico struct {
	Core   *port.Core
	I2C    *I2C
	SPI    *SPI
	Radio  *UART
	Ticker *timer.Ticker
}

// New configures the controllers and starts the radio reader.
func New(ctx context.Context, cfg config.Board) *Pico {
	c := port.NewCore(irqQueue)

	i2c := machine.I2C1
	_ = i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})

	spi := machine.SPI0
	_ = spi.Configure(machine.SPIConfig{
		Frequency: 4 * machine.MHz,
		SCK:       machine.SPI0_SCK_PIN,
		SDO:       machine.SPI0_SDO_PIN,
		SDI:       machine.SPI0_SDI_PIN,
		Mode:      3,
	})

	uart := uartx.UART1
	_ = uart.Configure(uartx.UARTConfig{
		BaudRate: radioBaud,
		TX:       radioTX,
		RX:       radioRX,
	})

	p := &Pico{
		Core:   c,
		I2C:    NewI2C(c.Soft, i2c),
		SPI:    NewSPI(c.Soft, spi, imuCS),
		Radio:  NewUART(c.Soft, uart),
		Ticker: timer.NewTicker(cfg.Timer.Hz, 1, c.Raise),
	}
	go func() {
		if err := p.Radio.Listen(ctx); err != nil {
			println("[rp2] radio reader stopped:", err.Error())
		}
	}()
	return p
}

// Hardware hands the ports to board.New.
func (p *Pico) Hardware() board.Hardware {
	return board.Hardware{
		IRQ:    p.Core.Soft,
		Sleep:  p.Core,
		I2C:    p.I2C,
		SPI:    p.SPI,
		LEUART: p.Radio,
		Timer:  p.Ticker,
	}
}
