package host

import "beaconcode-go/drivers/si1133"

// Light models the Si1133 register file: the command counter in RESPONSE0
// and a forced conversion landing in HOSTOUT1.
type Light struct {
	addr    uint8
	level   func() uint8
	input0  byte
	params  [0x40]byte
	counter byte
	hostOut byte
	forced  uint32

	// Stuck leaves the counter alone, as a wedged sensor would.
	Stuck bool
}

// NewLight returns a sensor whose conversions read level.
func NewLight(level func() uint8) *Light {
	return &Light{addr: si1133.Address, level: level}
}

func (l *Light) Address() uint8 { return l.addr }

func (l *Light) ReadReg(reg byte) byte {
	switch reg {
	case si1133.RegPartID:
		return si1133.PartIDValue
	case si1133.RegInput0:
		return l.input0
	case si1133.RegResponse0:
		return l.counter & 0x0F
	case si1133.RegHostOut1:
		return l.hostOut
	}
	return 0
}

func (l *Light) WriteReg(reg, v byte) {
	switch reg {
	case si1133.RegInput0:
		l.input0 = v
	case si1133.RegCommand:
		l.command(v)
	}
}

func (l *Light) command(c byte) {
	switch {
	case c&0xC0 == 0x80:
		l.params[c&0x3F] = l.input0
	case c == 0x11:
		l.forced++
		l.hostOut = l.level()
	default:
		return
	}
	if !l.Stuck {
		l.counter++
	}
}

// Param returns a parameter table entry.
func (l *Light) Param(p byte) byte { return l.params[p&0x3F] }

// Forced counts FORCE commands.
func (l *Light) Forced() uint32 { return l.forced }
