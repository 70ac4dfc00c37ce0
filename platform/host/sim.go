// Package host runs the firmware against peripheral models on a desktop
// machine. Models answer controller commands by pending interrupts on the
// soft controller, so the bus engines see the same source sequence they see
// on silicon.
package host

import (
	"beaconcode-go/board"
	"beaconcode-go/platform/port"
	"beaconcode-go/timer"
)

// Options shape the simulated environment.
type Options struct {
	Hz    uint32 // timer clock
	Speed uint32 // time compression; 1 is real time
	Queue int    // raise queue depth

	// Light and Z override the environment fields of Sim.
	Light func() uint8
	Z     func() int16
}

// Sim is a complete board: core, buses with their peripheral models and the
// low-energy timer.
type Sim struct {
	Core   *port.Core
	I2C    *I2C
	Light  *Light
	SPI    *SPI
	IMU    *IMU
	Radio  *Radio
	Ticker *timer.Ticker

	// Environment seen by the sensors unless Options override it. Change it
	// only from the main goroutine.
	Level uint8 // ambient light
	Tilt  int16 // Z axis
}

func New(o Options) *Sim {
	if o.Queue <= 0 {
		o.Queue = 16
	}
	c := port.NewCore(o.Queue)
	s := &Sim{Core: c, Level: 100, Tilt: 1 << 14}
	if o.Light == nil {
		o.Light = func() uint8 { return s.Level }
	}
	if o.Z == nil {
		o.Z = func() int16 { return s.Tilt }
	}
	s.Light = NewLight(o.Light)
	s.IMU = NewIMU(o.Z)
	s.Radio = NewRadio(c)
	s.I2C = NewI2C(c, s.Light)
	s.SPI = NewSPI(c, s.IMU)
	s.Ticker = timer.NewTicker(o.Hz, o.Speed, c.Raise)
	return s
}

// Hardware hands the ports to board.New.
func (s *Sim) Hardware() board.Hardware {
	return board.Hardware{
		IRQ:    s.Core.Soft,
		Sleep:  s.Core,
		I2C:    s.I2C,
		SPI:    s.SPI,
		LEUART: s.Radio,
		Timer:  s.Ticker,
	}
}

// Close stops the timer and releases anything waiting for an interrupt.
func (s *Sim) Close() {
	s.Ticker.Run(false)
	s.Core.Close()
}
