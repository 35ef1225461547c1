package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Resolver looks up services by name.
type Resolver interface {
	Resolve(name string) (interface{}, error)
}

// Registrar accepts service registrations.
type Registrar interface {
	RegisterInstance(name string, instance interface{}) error
	RegisterFactory(name string, factory Factory) error
}

// Factory produces a service. It is called at most once per registration.
type Factory func(r Resolver) (interface{}, error)

type entry struct {
	mu       sync.Mutex
	factory  Factory
	instance interface{}
	built    bool
}

// Registry is the default Resolver and Registrar.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// RegisterInstance adds a ready-made service.
func (r *Registry) RegisterInstance(name string, instance interface{}) error {
	if instance == nil {
		return fmt.Errorf("cannot register nil service %q", name)
	}
	return r.add(name, &entry{instance: instance, built: true})
}

// RegisterFactory adds a lazily built service.
func (r *Registry) RegisterFactory(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for service %q", name)
	}
	return r.add(name, &entry{factory: factory})
}

func (r *Registry) add(name string, e *entry) error {
	if name == "" {
		return fmt.Errorf("service has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.entries[name] = e
	return nil
}

// Unregister removes a service from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return &NotFoundError{Name: name}
	}

	delete(r.entries, name)
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[name]
	return exists
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the service registered under name, building it on first use.
func (r *Registry) Resolve(name string) (interface{}, error) {
	return r.resolve(name, nil)
}

func (r *Registry) resolve(name string, chain []string) (interface{}, error) {
	for _, seen := range chain {
		if seen == name {
			return nil, &ResolutionError{Name: name, Chain: append(append([]string(nil), chain...), name), Err: ErrCircularDependency}
		}
	}

	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &NotFoundError{Name: name}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.built {
		return e.instance, nil
	}

	path := append(append([]string(nil), chain...), name)
	instance, err := e.factory(&chainResolver{registry: r, chain: path})
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			return nil, err
		}
		return nil, &ResolutionError{Name: name, Chain: path, Err: err}
	}
	if instance == nil {
		return nil, &ResolutionError{Name: name, Chain: path, Err: fmt.Errorf("factory returned nil")}
	}

	e.instance = instance
	e.built = true
	e.factory = nil
	return instance, nil
}

// Validate resolves every registered service and reports all failures.
func (r *Registry) Validate() error {
	var errs []error
	for _, name := range r.Names() {
		if _, err := r.Resolve(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chainResolver is handed to factories so nested resolutions can detect cycles.
type chainResolver struct {
	registry *Registry
	chain    []string
}

func (c *chainResolver) Resolve(name string) (interface{}, error) {
	return c.registry.resolve(name, c.chain)
}

// Resolve looks up name and asserts the service to T.
func Resolve[T any](r Resolver, name string) (T, error) {
	var zero T

	raw, err := r.Resolve(name)
	if err != nil {
		return zero, err
	}

	v, ok := raw.(T)
	if !ok {
		return zero, &ResolutionError{Name: name, Err: fmt.Errorf("service is %T, not %T", raw, zero)}
	}
	return v, nil
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](r Resolver, name string) T {
	v, err := Resolve[T](r, name)
	if err != nil {
		panic(err)
	}
	return v
}
