package engine

// Registry is a startup-populated, read-only-after-init mapping from
// engine name to engine instance.
type Registry struct {
	order   []string
	engines map[string]Engine
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds e under its own name. Registering the same name twice
// replaces the earlier entry while preserving its original position.
func (r *Registry) Register(e Engine) {
	name := e.Name()
	if _, exists := r.engines[name]; !exists {
		r.order = append(r.order, name)
	}
	r.engines[name] = e
}

// Get returns the engine named name, and whether it was found.
func (r *Registry) Get(name string) (Engine, bool) {
	e, ok := r.engines[name]
	return e, ok
}

// Names returns every registered engine name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every registered engine in registration order.
func (r *Registry) All() []Engine {
	out := make([]Engine, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.engines[name])
	}
	return out
}

// Available returns every registered engine that reports itself
// available, in registration order.
func (r *Registry) Available() []Engine {
	var out []Engine
	for _, name := range r.order {
		e := r.engines[name]
		if e.IsAvailable() {
			out = append(out, e)
		}
	}
	return out
}

// DefaultEngine computes the default validate engine per the
// dispatcher's selection rule: an explicit override if present and
// available, else the first of preferredOrder that is present,
// available, and supports validate, else the empty string.
func (r *Registry) DefaultEngine(override string, preferredOrder []string) string {
	if override != "" {
		if e, ok := r.engines[override]; ok && e.IsAvailable() {
			return override
		}
	}
	for _, name := range preferredOrder {
		e, ok := r.engines[name]
		if !ok {
			continue
		}
		if e.IsAvailable() && e.HasCapability(CapValidate) {
			return name
		}
	}
	return ""
}
