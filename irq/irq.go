// Package irq is the interrupt-masking primitive shared by the scheduler,
// the energy-mode arbiter and the bus engines.
//
// There is one core and no nested preemption of a bus by its own interrupt
// sources, so a critical section is "mask, read-modify-write, restore".
package irq

// State is the mask captured by Disable and handed back to Restore.
type State uintptr

// Controller masks interrupt delivery to the core.
// Disable/Restore pairs nest: Restore returns to the state Disable observed.
type Controller interface {
	Disable() State
	Restore(State)
}

// Waiter is used by main-loop code that spins on a flag owned by interrupt
// context. Relax is called once per spin iteration.
type Waiter interface {
	Relax()
}

// Nest is a single-threaded Controller that only tracks nesting depth.
// It suits unit tests and any environment where step functions are called
// synchronously from the same goroutine.
type Nest struct {
	depth   int
	entered int
}

func (n *Nest) Disable() State {
	d := n.depth
	n.depth++
	n.entered++
	return State(d)
}

func (n *Nest) Restore(s State) { n.depth = int(s) }

// Masked reports whether a critical section is open.
func (n *Nest) Masked() bool { return n.depth > 0 }

// Entered counts Disable calls since creation.
func (n *Nest) Entered() int { return n.entered }
