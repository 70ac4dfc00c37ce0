package xfer

import "beaconcode-go/errcode"

// Registry addresses the board's engines by bus identifier.
type Registry struct {
	byID  map[string]*Engine
	order []*Engine
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Engine)}
}

// Add registers e under e.ID().
func (r *Registry) Add(e *Engine) error {
	if e == nil || e.ID() == "" {
		return errcode.New("xfer.registry", errcode.InvalidParams, "unnamed engine")
	}
	if _, dup := r.byID[e.ID()]; dup {
		return errcode.New("xfer.registry", errcode.InvalidParams, "duplicate bus "+e.ID())
	}
	r.byID[e.ID()] = e
	r.order = append(r.order, e)
	return nil
}

func (r *Registry) Get(id string) (*Engine, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// IsBusy reports whether bus id has a transfer in flight. Unknown buses are idle.
func (r *Registry) IsBusy(id string) bool {
	e, ok := r.byID[id]
	return ok && e.Busy()
}

// Step routes one decoded interrupt to bus id. An interrupt for a bus that
// was never registered is a wiring fault.
func (r *Registry) Step(id string, src Source, data byte) {
	e, ok := r.byID[id]
	if !ok {
		errcode.Fatal("xfer.registry", errcode.UnexpectedIRQ, "no bus "+id)
		return
	}
	e.Step(src, data)
}

// Engines returns the engines in registration order.
func (r *Registry) Engines() []*Engine { return r.order }
