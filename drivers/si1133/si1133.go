// Package si1133 drives the Si1133 ambient light sensor.
//
// Configuration and the force command are short blocking register accesses
// through a drivers.I2C connection. Reading the measurement is split-phase so
// the main loop can sleep while the bus works:
//
//	d.Force()                      // COMP1: start a conversion
//	d.RequestResult(ctx, evLight)  // UF: start the HOSTOUT1 read
//	v := d.Result()                // evLight handler: take the reading
package si1133

import (
	"context"

	"tinygo.org/x/drivers"

	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/xfer"
)

// I2C address.
const Address = 0x55

// PartIDValue is the content of the PART_ID register.
const PartIDValue = 0x33

// Registers.
const (
	RegPartID    = 0x00
	RegInput0    = 0x0A
	RegCommand   = 0x0B
	RegResponse0 = 0x11
	RegHostOut1  = 0x14
)

// Commands and parameters.
const (
	cmdParamWrite = 0x80
	cmdForce      = 0x11

	paramChanList = 0x01
	paramConfig0  = 0x02

	chanListChannel0  = 0x01
	adcmuxWhitePhotod = 0x0B

	counterMask = 0x0F
)

// Starter starts asynchronous transfers on the sensor's bus.
type Starter interface {
	Start(ctx context.Context, r xfer.Request) error
}

type Device struct {
	bus     drivers.I2C
	async   Starter
	Address uint16

	wbuf   [2]byte
	rbuf   [1]byte
	result [1]byte
}

// New returns a device on bus. async is normally the engine behind bus.
func New(bus drivers.I2C, async Starter) *Device {
	return &Device{bus: bus, async: async, Address: Address}
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.wbuf[0] = reg
	if err := d.bus.Tx(d.Address, d.wbuf[:1], d.rbuf[:]); err != nil {
		return 0, err
	}
	return d.rbuf[0], nil
}

func (d *Device) writeReg(reg, v byte) error {
	d.wbuf[0], d.wbuf[1] = reg, v
	return d.bus.Tx(d.Address, d.wbuf[:2], nil)
}

// PartID reads the part identifier.
func (d *Device) PartID() (byte, error) { return d.readReg(RegPartID) }

// Configure selects the white photodiode on channel 0. Each parameter write
// is confirmed by the command counter in RESPONSE0 advancing by one; a
// counter that does not advance returns false with errcode.Handshake.
func (d *Device) Configure() (bool, error) {
	const op = "si1133.configure"
	r, err := d.readReg(RegResponse0)
	if err != nil {
		return false, errcode.Wrap(op, err)
	}
	ctr := r & counterMask

	steps := [...]struct{ input, param byte }{
		{adcmuxWhitePhotod, paramConfig0},
		{chanListChannel0, paramChanList},
	}
	for _, s := range steps {
		if err := d.writeReg(RegInput0, s.input); err != nil {
			return false, errcode.Wrap(op, err)
		}
		if err := d.writeReg(RegCommand, cmdParamWrite|s.param); err != nil {
			return false, errcode.Wrap(op, err)
		}
		r, err := d.readReg(RegResponse0)
		if err != nil {
			return false, errcode.Wrap(op, err)
		}
		next := r & counterMask
		if next != (ctr+1)&counterMask {
			return false, errcode.New(op, errcode.Handshake, "command counter did not advance")
		}
		ctr = next
	}
	return true, nil
}

// Force starts one conversion of the configured channel list.
func (d *Device) Force() error {
	return errcode.Wrap("si1133.force", d.writeReg(RegCommand, cmdForce))
}

// RequestResult starts an asynchronous read of HOSTOUT1. ev is posted when
// the byte is available through Result.
func (d *Device) RequestResult(ctx context.Context, ev sched.Event) error {
	return d.async.Start(ctx, xfer.Request{
		Dir:   xfer.Read,
		Addr:  uint8(d.Address),
		Reg:   RegHostOut1,
		Buf:   d.result[:],
		Count: 1,
		Done:  ev,
	})
}

// Result returns the last reading and clears it.
func (d *Device) Result() uint8 {
	v := d.result[0]
	d.result[0] = 0
	return v
}
