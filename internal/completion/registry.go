package completion

import (
	"sync"
)

// Registration is a provider entry in the registry.
type Registration struct {
	Provider Provider
	// Builtin providers are shipped with the engine. They survive
	// SkipExternal requests and get their id stamped on their items.
	Builtin bool

	seq uint64
}

// Registry stores completion providers in registration order.
// Registering a provider with an id that is already present replaces the
// previous registration in place.
type Registry struct {
	mu            sync.RWMutex
	registrations []*Registration
	nextSeq       uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an external provider and returns a function that removes
// it again. The returned function is safe to call more than once.
func (r *Registry) Register(provider Provider) func() {
	return r.register(provider, false)
}

// RegisterBuiltin adds a built-in provider.
func (r *Registry) RegisterBuiltin(provider Provider) func() {
	return r.register(provider, true)
}

func (r *Registry) register(provider Provider, builtin bool) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	reg := &Registration{Provider: provider, Builtin: builtin, seq: r.nextSeq}

	replaced := false
	for i, existing := range r.registrations {
		if existing.Provider.ID() == provider.ID() {
			r.registrations[i] = reg
			replaced = true
			break
		}
	}
	if !replaced {
		r.registrations = append(r.registrations, reg)
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(reg.seq) })
	}
}

func (r *Registry) remove(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, reg := range r.registrations {
		if reg.seq == seq {
			r.registrations = append(r.registrations[:i], r.registrations[i+1:]...)
			return
		}
	}
}

// Registrations returns a snapshot of the registered providers in
// registration order.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		out = append(out, *reg)
	}
	return out
}

// Get returns the registration for a provider id.
func (r *Registry) Get(id string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.registrations {
		if reg.Provider.ID() == id {
			return *reg, true
		}
	}
	return Registration{}, false
}

// TriggerCharacters returns the union of all providers' trigger characters.
func (r *Registry) TriggerCharacters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var chars []string
	for _, reg := range r.registrations {
		for _, ch := range reg.Provider.TriggerCharacters() {
			if ch == "" || seen[ch] {
				continue
			}
			seen[ch] = true
			chars = append(chars, ch)
		}
	}
	return chars
}
