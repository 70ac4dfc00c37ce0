// Package board wires the firmware together: energy-mode arbiter, scheduler,
// bus engines, timer, sensor and radio drivers, the application and its
// dispatch loop. Platforms supply the hardware ports and the interrupt
// controller; everything above them is identical on host and target.
package board

import (
	"context"
	"time"

	"beaconcode-go/app"
	"beaconcode-go/config"
	"beaconcode-go/dispatch"
	"beaconcode-go/drivers/hm10"
	"beaconcode-go/drivers/icm20648"
	"beaconcode-go/drivers/si1133"
	"beaconcode-go/errcode"
	"beaconcode-go/irq"
	"beaconcode-go/sched"
	"beaconcode-go/sleep"
	"beaconcode-go/timer"
	"beaconcode-go/x/ring"
	"beaconcode-go/xfer"
)

// Bus identifiers.
const (
	I2CBus    = "i2c1"
	SPIBus    = "spi0"
	LEUARTBus = "leuart0"
)

// Hardware is what a platform provides.
type Hardware struct {
	IRQ    *irq.Soft
	Sleep  sleep.Sleeper
	I2C    xfer.I2CPort
	SPI    xfer.SPIPort
	LEUART xfer.StreamPort
	Timer  timer.Port
}

// Ports that raise interrupts implement Attach; New connects them to their
// engine.
type busAttacher interface {
	Attach(step func(src xfer.Source, data byte))
}

type timerAttacher interface {
	Attach(step func(src timer.Source))
}

type Board struct {
	Cfg config.Board

	IRQ      *irq.Soft
	Arbiter  *sleep.Arbiter
	Sched    *sched.Scheduler
	Buses    *xfer.Registry
	I2C      *xfer.Engine
	SPI      *xfer.Engine
	LEUART   *xfer.UART
	Watchdog *xfer.Watchdog
	Timer    *timer.Timer

	Light *si1133.Device
	IMU   *icm20648.Device
	BLE   *hm10.Device

	App  *app.App
	Loop *dispatch.Loop

	started bool
}

// New builds the board from a configuration. ctx bounds every blocking wait
// the drivers perform; cancelling it is how a host build shuts down.
func New(ctx context.Context, cfg config.Board, hw Hardware) (*Board, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	config.Normalize(&cfg)
	if hw.IRQ == nil || hw.Sleep == nil || hw.I2C == nil || hw.SPI == nil || hw.LEUART == nil || hw.Timer == nil {
		return nil, errcode.New("board.new", errcode.InvalidParams, "incomplete hardware")
	}

	b := &Board{Cfg: cfg, IRQ: hw.IRQ}
	b.Arbiter = sleep.NewArbiter(hw.IRQ, hw.Sleep, sleep.Options{
		Deepest: sleep.Mode(cfg.Sleep.Deepest),
		Ceiling: cfg.Sleep.Ceiling,
	})
	b.Sched = sched.New(hw.IRQ)

	d := xfer.Deps{CS: hw.IRQ, Sleep: b.Arbiter, Sched: b.Sched, Wait: hw.IRQ}
	b.I2C = xfer.NewI2C(I2CBus, hw.I2C, sleep.Mode(cfg.Buses.I2CBlock), d)
	b.SPI = xfer.NewSPI(SPIBus, hw.SPI, sleep.Mode(cfg.Buses.SPIBlock), d)
	b.LEUART = xfer.NewLEUART(LEUARTBus, hw.LEUART, sleep.Mode(cfg.Buses.LEUARTBlock), d,
		xfer.RxConfig{Ring: ring.New(cfg.BLE.RxRing)})

	b.Buses = xfer.NewRegistry()
	for _, e := range []*xfer.Engine{b.I2C, b.SPI, b.LEUART.Engine} {
		if err := b.Buses.Add(e); err != nil {
			return nil, err
		}
	}
	attach(hw.I2C, b.I2C)
	attach(hw.SPI, b.SPI)
	attach(hw.LEUART, b.LEUART.Engine)
	b.Watchdog = xfer.NewWatchdog(cfg.Watchdog.LimitTicks, b.Buses.Engines()...)

	b.Timer = timer.New(hw.Timer, b.Arbiter, b.Sched)
	if a, ok := hw.Timer.(timerAttacher); ok {
		a.Attach(b.Timer.Step)
	}
	err := b.Timer.Open(timer.Config{
		Period: cfg.Timer.Period(),
		Active: cfg.Timer.Active(),
		Hz:     cfg.Timer.Hz,
		IRQ:    timer.Underflow | timer.Comp1,
		UF:     app.EvUnderflow,
		Comp0:  app.EvComp0,
		Comp1:  app.EvComp1,
		Mode:   sleep.Mode(cfg.Timer.Block),
	})
	if err != nil {
		return nil, err
	}
	b.Timer.OnUnderflow(b.Watchdog.Check)

	b.Light = si1133.New(xfer.NewI2CConn(ctx, b.I2C), b.I2C)
	b.Light.Address = uint16(cfg.Light.Address)
	b.IMU = icm20648.New(xfer.NewSPIConn(ctx, b.SPI), b.SPI)
	b.BLE = hm10.New(b.LEUART, hw.IRQ, app.EvBLETxDone)

	b.App = app.New(ctx, app.Deps{
		Events: b.Sched,
		Light:  b.Light,
		IMU:    b.IMU,
		BLE:    b.BLE,
		Timer:  b.Timer,
	}, app.Config{
		LightThreshold:  cfg.Light.Threshold,
		BLEName:         cfg.BLE.Name,
		SelfTest:        cfg.BLE.SelfTest,
		SelfTestTimeout: cfg.BLE.Timeout(),
	})

	b.Loop, err = dispatch.New(hw.IRQ, b.Arbiter, b.Sched, b.App.Entries())
	if err != nil {
		return nil, err
	}
	return b, nil
}

func attach(port any, e *xfer.Engine) {
	if a, ok := port.(busAttacher); ok {
		a.Attach(e.Step)
	}
}

// Start brings the peripherals up and queues the boot event. A light sensor
// that fails its configuration handshake is fatal.
func (b *Board) Start() {
	if b.started {
		return
	}
	b.started = true
	b.Arbiter.Reset()
	b.Sched.Reset()
	if m := sleep.Mode(b.Cfg.Sleep.SystemBlock); m != sleep.EM0 {
		b.Arbiter.Block(m)
	}
	ok, err := b.Light.Configure()
	if err != nil {
		errcode.Fatal("board.start", errcode.Of(err), err.Error())
		return
	}
	errcode.Assert(ok, "board.start", errcode.Handshake, "si1133 configuration")
	b.App.Boot()
	println("[board] started")
}

// Run starts the board if needed and dispatches events until ctx ends.
func (b *Board) Run(ctx context.Context) error {
	b.Start()
	return b.Loop.Run(ctx)
}

// Stop halts the timer and releases the system block.
func (b *Board) Stop() {
	if !b.started {
		return
	}
	b.Timer.Start(false)
	if m := sleep.Mode(b.Cfg.Sleep.SystemBlock); m != sleep.EM0 {
		b.Arbiter.Unblock(m)
	}
	b.started = false
}

// Uptime is the number of timer periods since start.
func (b *Board) Uptime() time.Duration {
	return time.Duration(b.Timer.Ticks()) * b.Cfg.Timer.Period()
}
