package errcode

// HaltFunc receives an invariant violation. It must not return normally on
// firmware builds; the default panics so host tests can recover the fault.
type HaltFunc func(e *E)

var halt HaltFunc = func(e *E) { panic(e) }

// SetHalt installs the fail-fast hook and returns the previous one.
// A nil hook restores the panicking default.
func SetHalt(h HaltFunc) HaltFunc {
	prev := halt
	if h == nil {
		h = func(e *E) { panic(e) }
	}
	halt = h
	return prev
}

// Fatal escalates a programming or protocol invariant violation.
// There is no recovery path at the layer that detects it.
func Fatal(op string, c Code, msg string) {
	halt(&E{C: c, Op: op, Msg: msg})
}

// Assert calls Fatal when cond is false.
func Assert(cond bool, op string, c Code, msg string) {
	if !cond {
		Fatal(op, c, msg)
	}
}

// Recovered converts a recovered panic value back into a Code.
// Non-error values map to Error; nil maps to OK.
func Recovered(r any) Code {
	if r == nil {
		return OK
	}
	if err, ok := r.(error); ok {
		return Of(err)
	}
	return Error
}
