// Package icm20648 drives the ICM-20648 6-axis IMU over SPI. Only the
// accelerometer's low-power wake-on-motion setup and Z-axis reads are used.
package icm20648

import (
	"context"
	"time"

	"tinygo.org/x/drivers"

	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/xfer"
)

// User bank 0 registers.
const (
	RegWhoAmI     = 0x00
	RegLPConfig   = 0x05
	RegPwrMgmt1   = 0x06
	RegPwrMgmt2   = 0x07
	RegAccelZOutH = 0x31
	RegAccelZOutL = 0x32
	RegBankSel    = 0x7F
)

// User bank 2 registers.
const (
	RegAccelWOMThr = 0x13
)

const readBit = 0x80

// WhoAmIValue is the content of WHO_AM_I.
const WhoAmIValue = 0xE0

// Low-power configuration written by Configure.
const (
	PwrMgmt1Cfg    = 1<<5 | 1<<3 // LP_EN, TEMP_DIS
	PwrMgmt2Cfg    = 0x07        // gyro off
	LPConfigCfg    = 1 << 5      // accel duty-cycled
	AccelWOMThrCfg = 60
)

type Starter interface {
	Start(ctx context.Context, r xfer.Request) error
}

type Config struct {
	// Settle is the pause after each configuration write. Default 1 ms.
	Settle time.Duration
}

type Device struct {
	bus   drivers.SPI
	async Starter
	cfg   Config

	w      [2]byte
	r      [2]byte
	result [1]byte
}

func New(bus drivers.SPI, async Starter) *Device {
	return &Device{bus: bus, async: async, cfg: Config{Settle: time.Millisecond}}
}

// SetConfig applies optional settings; zero fields keep their defaults.
func (d *Device) SetConfig(c Config) {
	if c.Settle > 0 {
		d.cfg.Settle = c.Settle
	}
}

func (d *Device) writeReg(reg, v byte) error {
	d.w[0], d.w[1] = reg, v
	return d.bus.Tx(d.w[:], nil)
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0], d.w[1] = reg|readBit, 0
	if err := d.bus.Tx(d.w[:], d.r[:]); err != nil {
		return 0, err
	}
	return d.r[1], nil
}

// WhoAmI reads the device identifier.
func (d *Device) WhoAmI() (byte, error) { return d.readReg(RegWhoAmI) }

func (d *Device) bank(n byte) error { return d.writeReg(RegBankSel, n<<4) }

// Configure puts the accelerometer in duty-cycled low-power mode with a
// wake-on-motion threshold. Every write is read back; a mismatch returns
// false with errcode.Handshake.
func (d *Device) Configure() (bool, error) {
	const op = "icm20648.configure"
	steps := [...]struct{ bank, reg, val byte }{
		{0, RegPwrMgmt1, PwrMgmt1Cfg},
		{0, RegPwrMgmt2, PwrMgmt2Cfg},
		{0, RegLPConfig, LPConfigCfg},
		{2, RegAccelWOMThr, AccelWOMThrCfg},
	}
	cur := byte(0)
	if err := d.bank(cur); err != nil {
		return false, errcode.Wrap(op, err)
	}
	ok := true
	for _, s := range steps {
		if s.bank != cur {
			if err := d.bank(s.bank); err != nil {
				return false, errcode.Wrap(op, err)
			}
			cur = s.bank
		}
		if err := d.writeReg(s.reg, s.val); err != nil {
			return false, errcode.Wrap(op, err)
		}
		time.Sleep(d.cfg.Settle)
		got, err := d.readReg(s.reg)
		if err != nil {
			return false, errcode.Wrap(op, err)
		}
		if got != s.val {
			ok = false
		}
	}
	if cur != 0 {
		if err := d.bank(0); err != nil {
			return false, errcode.Wrap(op, err)
		}
	}
	if !ok {
		return false, errcode.New(op, errcode.Handshake, "register read-back mismatch")
	}
	return true, nil
}

// ReadReg starts an asynchronous single-register read; ev is posted when the
// value is available through Result.
func (d *Device) ReadReg(ctx context.Context, reg byte, ev sched.Event) error {
	return d.async.Start(ctx, xfer.Request{
		Dir:   xfer.Read,
		Reg:   reg,
		Buf:   d.result[:],
		Count: 1,
		Done:  ev,
	})
}

// Result returns the byte of the last asynchronous read.
func (d *Device) Result() byte { return d.result[0] }

// ZAxis combines the two halves of ACCEL_ZOUT.
func ZAxis(lo, hi byte) int16 { return int16(uint16(hi)<<8 | uint16(lo)) }
