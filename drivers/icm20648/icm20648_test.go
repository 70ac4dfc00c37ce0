package icm20648

import (
	"context"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"beaconcode-go/errcode"
	"beaconcode-go/sched"
	"beaconcode-go/xfer"
)

// fakeIMU models a banked register file behind SPI frames.
type fakeIMU struct {
	banks  [4][0x80]byte
	bank   int
	ignore byte // writes to this register are dropped
	frames int
}

var _ drivers.SPI = (*fakeIMU)(nil)

func (f *fakeIMU) Tx(w, r []byte) error {
	f.frames++
	reg := w[0] &^ readBit
	if w[0]&readBit != 0 {
		r[0] = 0
		r[1] = f.banks[f.bank][reg]
		return nil
	}
	if reg == RegBankSel {
		f.bank = int(w[1] >> 4)
		return nil
	}
	if reg != f.ignore {
		f.banks[f.bank][reg] = w[1]
	}
	return nil
}

func (f *fakeIMU) Transfer(b byte) (byte, error) { return 0, errcode.Unsupported }

func newTestDevice(bus drivers.SPI, st Starter) *Device {
	d := New(bus, st)
	d.SetConfig(Config{Settle: time.Microsecond})
	return d
}

func TestConfigure(t *testing.T) {
	bus := &fakeIMU{}
	d := newTestDevice(bus, nil)
	ok, err := d.Configure()
	if !ok || err != nil {
		t.Fatalf("Configure = %v, %v", ok, err)
	}
	b0 := bus.banks[0]
	if b0[RegPwrMgmt1] != PwrMgmt1Cfg || b0[RegPwrMgmt2] != PwrMgmt2Cfg || b0[RegLPConfig] != LPConfigCfg {
		t.Fatalf("bank 0 = % x", b0[:8])
	}
	if bus.banks[2][RegAccelWOMThr] != AccelWOMThrCfg {
		t.Fatalf("WOM threshold = %d", bus.banks[2][RegAccelWOMThr])
	}
	if bus.bank != 0 {
		t.Fatalf("left in bank %d", bus.bank)
	}
}

func TestConfigureReadBackMismatch(t *testing.T) {
	bus := &fakeIMU{ignore: RegLPConfig}
	ok, err := newTestDevice(bus, nil).Configure()
	if ok || errcode.Of(err) != errcode.Handshake {
		t.Fatalf("Configure = %v, %v", ok, err)
	}
	// The remaining steps still ran.
	if bus.banks[2][RegAccelWOMThr] != AccelWOMThrCfg {
		t.Fatalf("configuration stopped early")
	}
}

type fakeStarter struct{ reqs []xfer.Request }

func (f *fakeStarter) Start(_ context.Context, r xfer.Request) error {
	f.reqs = append(f.reqs, r)
	r.Buf[0] = 0xC0
	return nil
}

func TestReadReg(t *testing.T) {
	st := &fakeStarter{}
	d := newTestDevice(&fakeIMU{}, st)
	const ev = sched.Event(1 << 6)
	if err := d.ReadReg(context.Background(), RegAccelZOutL, ev); err != nil {
		t.Fatal(err)
	}
	r := st.reqs[0]
	if r.Dir != xfer.Read || r.Reg != RegAccelZOutL || r.Count != 1 || r.Done != ev {
		t.Fatalf("request = %+v", r)
	}
	if d.Result() != 0xC0 {
		t.Fatalf("Result = %#x", d.Result())
	}
}

func TestZAxis(t *testing.T) {
	cases := []struct {
		lo, hi byte
		want   int16
	}{
		{0x00, 0x40, 16384},
		{0x00, 0xC0, -16384},
		{0xFF, 0xFF, -1},
		{0x01, 0x00, 1},
	}
	for _, c := range cases {
		if got := ZAxis(c.lo, c.hi); got != c.want {
			t.Errorf("ZAxis(%#x, %#x) = %d, want %d", c.lo, c.hi, got, c.want)
		}
	}
}
