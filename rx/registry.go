package rx

import "fmt"

// Scope is a registered model's lifetime policy.
type Scope int

const (
	ScopeScoped Scope = iota
	ScopeSingleton
	ScopeTransient
)

func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeScoped:
		return "scoped"
	case ScopeTransient:
		return "transient"
	}
	return "unknown"
}

// Provider builds one model instance. New receives the resolver so
// constructor dependencies can be resolved recursively.
type Provider struct {
	Scope Scope
	New   func(r *Resolver) any
}

// Registry holds every generated model provider, keyed by model ID.
// The generated registration artifact fills it once at startup.
type Registry struct {
	providers  map[string]Provider
	singletons map[string]any
}

func NewRegistry() *Registry {
	return &Registry{
		providers:  make(map[string]Provider),
		singletons: make(map[string]any),
	}
}

// Register adds a provider. Registering the same ID twice is a
// programming error in generated code and panics.
func (g *Registry) Register(id string, p Provider) {
	if _, dup := g.providers[id]; dup {
		panic(fmt.Sprintf("rx: model %s registered twice", id))
	}
	g.providers[id] = p
}

// IDs returns the registered model IDs in unspecified order.
func (g *Registry) IDs() []string {
	out := make([]string, 0, len(g.providers))
	for id := range g.providers {
		out = append(out, id)
	}
	return out
}

// NewResolver opens one resolution scope (one UI session). Scoped
// instances are cached per resolver, singletons per registry.
func (g *Registry) NewResolver() *Resolver {
	return &Resolver{reg: g, scoped: make(map[string]any)}
}

// Resolver resolves model instances within one scope.
type Resolver struct {
	reg    *Registry
	scoped map[string]any
	// building tracks scopes on the in-progress construction stack so
	// captive dependencies surface at resolve time, mirroring the
	// generator's static rule.
	building []Scope
}

// Resolve builds or returns the instance for id.
func (r *Resolver) Resolve(id string) (any, error) {
	p, ok := r.reg.providers[id]
	if !ok {
		return nil, fmt.Errorf("rx: model %s is not registered", id)
	}
	for _, outer := range r.building {
		if outer == ScopeSingleton && p.Scope != ScopeSingleton {
			return nil, fmt.Errorf("rx: %s model %s resolved inside a singleton (captive dependency)", p.Scope, id)
		}
	}
	switch p.Scope {
	case ScopeSingleton:
		if v, ok := r.reg.singletons[id]; ok {
			return v, nil
		}
		v := r.build(id, p)
		r.reg.singletons[id] = v
		return v, nil
	case ScopeScoped:
		if v, ok := r.scoped[id]; ok {
			return v, nil
		}
		v := r.build(id, p)
		r.scoped[id] = v
		return v, nil
	default:
		return r.build(id, p), nil
	}
}

func (r *Resolver) build(id string, p Provider) any {
	r.building = append(r.building, p.Scope)
	defer func() { r.building = r.building[:len(r.building)-1] }()
	return p.New(r)
}

// MustResolve is Resolve for wiring paths where a failure is a
// programming error.
func (r *Resolver) MustResolve(id string) any {
	v, err := r.Resolve(id)
	if err != nil {
		panic(err)
	}
	return v
}
