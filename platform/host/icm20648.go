package host

import "beaconcode-go/drivers/icm20648"

// IMU models the ICM-20648 SPI register file: four banks, BANK_SEL visible
// from all of them, auto-incrementing register pointer, and a Z axis sample
// served from ACCEL_ZOUT.
type IMU struct {
	z     func() int16
	banks [4][0x80]byte
	bank  byte

	selected bool
	read     bool
	ptr      byte
	accesses uint32
}

// NewIMU returns a sensor whose Z axis reads z.
func NewIMU(z func() int16) *IMU {
	m := &IMU{z: z}
	m.banks[0][icm20648.RegWhoAmI] = icm20648.WhoAmIValue
	return m
}

func (m *IMU) Select(on bool) {
	m.selected = on
	if on {
		m.accesses++
	}
}

func (m *IMU) Exchange(i int, out byte) byte {
	if !m.selected {
		return 0xFF
	}
	if i == 0 {
		m.read = out&0x80 != 0
		m.ptr = out &^ 0x80
		return 0
	}
	reg := m.ptr
	m.ptr = (m.ptr + 1) & 0x7F
	if m.read {
		return m.get(reg)
	}
	m.set(reg, out)
	return 0
}

func (m *IMU) get(reg byte) byte {
	if reg == icm20648.RegBankSel {
		return m.bank << 4
	}
	if m.bank == 0 {
		switch reg {
		case icm20648.RegAccelZOutH:
			return byte(uint16(m.z()) >> 8)
		case icm20648.RegAccelZOutL:
			return byte(m.z())
		}
	}
	return m.banks[m.bank][reg]
}

func (m *IMU) set(reg, v byte) {
	if reg == icm20648.RegBankSel {
		m.bank = (v >> 4) & 0x03
		return
	}
	if m.bank == 0 && reg == icm20648.RegWhoAmI {
		return
	}
	m.banks[m.bank][reg] = v
}

// Reg returns a register of a bank.
func (m *IMU) Reg(bank, reg byte) byte { return m.banks[bank&0x03][reg&0x7F] }

// Bank is the selected register bank.
func (m *IMU) Bank() byte { return m.bank }

// Accesses counts chip selects.
func (m *IMU) Accesses() uint32 { return m.accesses }
