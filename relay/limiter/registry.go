package limiter

import "sync"

// Registry holds the live bundle per quota UUID so every worker and every
// principal admitting against the same quota shares one set of cells. A
// bundle is created the first time its quota is admitted to the running
// state and destroyed when the quota is removed or replaced; replacing a
// quota therefore resets its windows.
type Registry struct {
	mu      sync.Mutex
	clock   Clock
	bundles map[string]*Bundle
}

func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock()
	}
	return &Registry{
		clock:   clock,
		bundles: make(map[string]*Bundle),
	}
}

// Get returns the live bundle for the quota id, creating it from limits on
// first use.
func (r *Registry) Get(id string, label string, limits []Limit) *Bundle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bundle, ok := r.bundles[id]; ok {
		return bundle
	}
	bundle := NewBundle(id, label, limits, r.clock)
	r.bundles[id] = bundle
	return bundle
}

// Drop discards the bundle for a removed or replaced quota. In-flight
// reservations keep their cell pointers and settle against the old cells;
// new admissions build fresh windows.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bundles, id)
}
