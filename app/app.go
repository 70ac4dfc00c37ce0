// Package app is the beacon application: it owns the event enumeration, the
// dispatch priority table and the handlers that turn sensor readings into
// BLE messages.
package app

import (
	"context"
	"time"

	"beaconcode-go/dispatch"
	"beaconcode-go/drivers/icm20648"
	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/x/fmtx"
	"beaconcode-go/x/mathx"
)

// Events, listed in dispatch priority order.
const (
	EvComp0 sched.Event = 1 << iota
	EvComp1
	EvUnderflow
	EvLightRead
	EvBootUp
	EvBLETxDone
	EvIMURead1
	EvIMUReadDone
)

// Light is the ambient light sensor.
type Light interface {
	Force() error
	RequestResult(ctx context.Context, ev sched.Event) error
	Result() uint8
}

// IMU is the accelerometer.
type IMU interface {
	Configure() (bool, error)
	ReadReg(ctx context.Context, reg byte, ev sched.Event) error
	Result() byte
}

// BLE is the radio module.
type BLE interface {
	Write(ctx context.Context, s string) error
	Test(ctx context.Context, name string) (bool, error)
}

// Timer is the periodic event source.
type Timer interface {
	Start(enable bool)
}

// Events is the scheduler as seen by the application.
type Events interface {
	Post(e sched.Event)
	Has(e sched.Event) bool
}

type Deps struct {
	Events Events
	Light  Light
	IMU    IMU
	BLE    BLE
	Timer  Timer
}

type Config struct {
	LightThreshold  uint8
	BLEName         string
	SelfTest        bool
	SelfTestTimeout time.Duration
}

const (
	DefaultLightThreshold  = 20
	DefaultSelfTestTimeout = 2 * time.Second
)

type App struct {
	ctx context.Context
	d   Deps
	cfg Config

	// running mean of the periodic counter
	x, y uint32

	zLow byte
	z    int16

	// LED state
	dark bool
	down bool

	txDone uint32
}

func New(ctx context.Context, d Deps, cfg Config) *App {
	if cfg.LightThreshold == 0 {
		cfg.LightThreshold = DefaultLightThreshold
	}
	if cfg.SelfTestTimeout <= 0 {
		cfg.SelfTestTimeout = DefaultSelfTestTimeout
	}
	return &App{ctx: ctx, d: d, cfg: cfg, x: 3, z: 1}
}

// Entries is the dispatch table.
func (a *App) Entries() []dispatch.Entry {
	return []dispatch.Entry{
		{Event: EvComp0, Name: "comp0", Handle: a.onComp0},
		{Event: EvComp1, Name: "comp1", Handle: a.onComp1},
		{Event: EvUnderflow, Name: "uf", Handle: a.onUnderflow},
		{Event: EvLightRead, Name: "light", Handle: a.onLightRead},
		{Event: EvBootUp, Name: "boot", Handle: a.onBootUp},
		{Event: EvBLETxDone, Name: "ble_tx", Handle: a.onBLETxDone},
		{Event: EvIMURead1, Name: "imu1", Handle: a.onIMURead1},
		{Event: EvIMUReadDone, Name: "imu2", Handle: a.onIMUReadDone},
	}
}

// Boot queues the start-up handler.
func (a *App) Boot() { a.d.Events.Post(EvBootUp) }

// Dark reports the "it's dark" LED.
func (a *App) Dark() bool { return a.dark }

// FacingDown reports the orientation LED.
func (a *App) FacingDown() bool { return a.down }

// Z is the last Z-axis sample.
func (a *App) Z() int16 { return a.z }

// TxDone counts completed BLE writes.
func (a *App) TxDone() uint32 { return a.txDone }

func (a *App) cleared(ev sched.Event, op string) {
	errcode.Assert(!a.d.Events.Has(ev), op, errcode.Error, "handler entered with its event pending")
}

// must escalates errors from work the handlers cannot skip. Errors caused by
// the application context ending are shutdown, not faults.
func (a *App) must(op string, err error) {
	if err == nil || a.ctx.Err() != nil {
		return
	}
	errcode.Fatal(op, errcode.Of(err), err.Error())
}

func (a *App) say(op, s string) { a.must(op, a.d.BLE.Write(a.ctx, s)) }

func (a *App) onComp0() {
	errcode.Fatal("app.comp0", errcode.UnexpectedIRQ, "comp0 is not enabled")
}

func (a *App) onComp1() {
	a.cleared(EvComp1, "app.comp1")
	a.must("app.comp1", a.d.Light.Force())
}

func (a *App) onUnderflow() {
	const op = "app.uf"
	a.cleared(EvUnderflow, op)
	a.x += 3
	a.y++
	r := mathx.Ratio10(a.x, a.y)
	a.say(op, fmtx.Sprintf("z = %d.%d\n", r/10, r%10))
	a.must(op, a.d.Light.RequestResult(a.ctx, EvLightRead))
	a.must(op, a.d.IMU.ReadReg(a.ctx, icm20648.RegAccelZOutL, EvIMURead1))
}

func (a *App) onLightRead() {
	const op = "app.light"
	a.cleared(EvLightRead, op)
	v := a.d.Light.Result()
	if v < a.cfg.LightThreshold {
		a.dark = true
		a.say(op, fmtx.Sprintf("it's dark, %d\n", v))
		return
	}
	a.dark = false
	a.say(op, fmtx.Sprintf("it's light outside, %d\n", v))
}

func (a *App) onBootUp() {
	const op = "app.boot"
	a.cleared(EvBootUp, op)
	if a.cfg.SelfTest {
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.SelfTestTimeout)
		ok, err := a.d.BLE.Test(ctx, a.cfg.BLEName)
		cancel()
		a.must(op, err)
		errcode.Assert(ok, op, errcode.Handshake, "ble self-test")
	}
	ok, err := a.d.IMU.Configure()
	a.must(op, err)
	errcode.Assert(ok, op, errcode.Handshake, "imu configuration")
	a.d.Timer.Start(true)
	a.say(op, "\nHello World!\n")
	println("[app] boot complete")
}

func (a *App) onBLETxDone() {
	a.cleared(EvBLETxDone, "app.ble_tx")
	a.txDone++
}

func (a *App) onIMURead1() {
	const op = "app.imu1"
	a.cleared(EvIMURead1, op)
	a.zLow = a.d.IMU.Result()
	a.must(op, a.d.IMU.ReadReg(a.ctx, icm20648.RegAccelZOutH, EvIMUReadDone))
}

func (a *App) onIMUReadDone() {
	const op = "app.imu2"
	a.cleared(EvIMUReadDone, op)
	a.z = icm20648.ZAxis(a.zLow, a.d.IMU.Result())
	switch {
	case !a.down && a.z < 0:
		a.down = true
		a.say(op, "Facing Down!\n")
	case a.down && a.z > 0:
		a.down = false
		a.say(op, "Facing up!\n")
	}
}
