package timer

import (
	"time"

	"beaconcode-go/x/timex"
)

// Ticker is a Port backed by a goroutine. The counter runs down from top:
// COMP0 fires on reload, COMP1 when the count reaches the active compare and
// UF at zero. Each enabled source is handed to raise, which must deliver it
// to the main goroutine (irq.Soft.Raise).
type Ticker struct {
	hz    uint32
	speed uint32
	raise func(isr func())
	step  func(Source)

	top, active uint32
	mask        Source
	quit        chan struct{}
}

// NewTicker returns a stopped ticker counting at hz. speed > 1 compresses
// time for simulation.
func NewTicker(hz, speed uint32, raise func(isr func())) *Ticker {
	if speed == 0 {
		speed = 1
	}
	return &Ticker{hz: hz, speed: speed, raise: raise}
}

// Attach sets the interrupt entry point, normally (*Timer).Step.
func (k *Ticker) Attach(step func(Source)) { k.step = step }

func (k *Ticker) Load(top, active uint32) { k.top, k.active = top, active }

func (k *Ticker) EnableIRQ(mask Source) { k.mask = mask }

func (k *Ticker) Run(on bool) {
	if on == (k.quit != nil) {
		return
	}
	if !on {
		close(k.quit)
		k.quit = nil
		return
	}
	k.quit = make(chan struct{})
	lead := timex.FromCounts(k.top-k.active, k.hz) / time.Duration(k.speed)
	tail := timex.FromCounts(k.active, k.hz) / time.Duration(k.speed)
	go k.loop(k.quit, k.mask, lead, tail)
}

func (k *Ticker) loop(quit <-chan struct{}, mask Source, lead, tail time.Duration) {
	t := time.NewTimer(time.Hour)
	defer t.Stop()
	wait := func(d time.Duration) bool {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(d)
		select {
		case <-t.C:
			return true
		case <-quit:
			return false
		}
	}
	fire := func(src Source) {
		if mask&src != 0 && k.step != nil {
			step := k.step
			k.raise(func() { step(src) })
		}
	}
	for {
		fire(Comp0)
		if !wait(lead) {
			return
		}
		fire(Comp1)
		if !wait(tail) {
			return
		}
		fire(Underflow)
	}
}
