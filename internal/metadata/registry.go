package metadata

import "sync"

// Registry is a domain's class/name map plus primitive-type map. A
// Registry belongs to exactly one domain thread; it is mutated only
// during parsing, type resolution and linking, then treated as read-only
// for the lifetime of the domain. The mutex exists solely for the
// lazily-synthesized classes created from reflection while holding the
// thunk manager's lock.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]*Class
	classes []*Class

	// syntheticCache holds array/failable/boxed/foreign-proxy classes
	// keyed by a synthesis key (see internal/resolve), so at most one
	// class is created per domain per combination.
	syntheticCache map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{
		byName:         make(map[string]*Class),
		syntheticCache: make(map[string]*Class),
	}
}

// Lookup finds a class by its nice (user-visible) name. Missing classes
// report ok=false so the caller (the type resolver) can report a
// diagnostic with source location.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[name]
	return c, ok
}

// Register adds a newly parsed or synthesized class to the registry. It is
// the caller's responsibility to avoid registering the same nice name
// twice outside of the synthesis caches below.
func (r *Registry) Register(c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[c.NiceName] = c
	r.classes = append(r.classes, c)
}

// Classes returns every class registered so far, in registration order.
func (r *Registry) Classes() []*Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Class, len(r.classes))
	copy(out, r.classes)
	return out
}

// SynthesizedOrCreate returns the cached class for key, or calls create()
// to build and cache one. This is the "at most one class per domain per
// combination" cache the resolver relies on for arrays/failables/boxed/
// foreign proxies.
func (r *Registry) SynthesizedOrCreate(key string, create func() *Class) *Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.syntheticCache[key]; ok {
		return c
	}
	c := create()
	r.syntheticCache[key] = c
	r.byName[c.NiceName] = c
	r.classes = append(r.classes, c)
	return c
}
