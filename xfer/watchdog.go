package xfer

import "beaconcode-go/errcode"

// Watchdog escalates transfers that stop making progress, such as a peer
// that never acknowledges. Check is called from a periodic handler; a
// transfer still in flight with the same sequence number after more than
// Limit checks is fatal.
type Watchdog struct {
	Limit uint32 // 0 disables

	engines []*Engine
	seen    []uint32
	age     []uint32
}

func NewWatchdog(limit uint32, engines ...*Engine) *Watchdog {
	return &Watchdog{
		Limit:   limit,
		engines: engines,
		seen:    make([]uint32, len(engines)),
		age:     make([]uint32, len(engines)),
	}
}

// Check ages every busy engine by one tick.
func (w *Watchdog) Check() {
	if w.Limit == 0 {
		return
	}
	for i, e := range w.engines {
		if !e.Busy() {
			w.age[i] = 0
			continue
		}
		seq := e.Seq()
		if seq != w.seen[i] {
			w.seen[i] = seq
			w.age[i] = 0
			continue
		}
		w.age[i]++
		if w.age[i] > w.Limit {
			errcode.Fatal("xfer."+e.ID(), errcode.Timeout, "transfer stalled in "+e.Phase().String())
			return
		}
	}
}

// Age returns how many checks engine i has been seen busy on one transfer.
func (w *Watchdog) Age(i int) uint32 { return w.age[i] }
