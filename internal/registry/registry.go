package registry

import (
	"sort"
	"strings"
	"sync"
)

// Registry is the process-wide ledger of live dynamic APIs. It is the single
// source of truth consulted by route handlers at request time: handlers never
// cache a definition across requests, so an unregistered name turns into
// NotFound on the very next request.
//
// Register performs an atomic check-then-insert under one mutex, which is
// what serializes concurrent creations per name: exactly one of two racing
// creations for the same name can win.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*Definition
}

// New constructs an empty registry bounded at capacity entries.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 1
	}
	return &Registry{
		capacity: capacity,
		entries:  make(map[string]*Definition),
	}
}

// Capacity returns the configured entry limit.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Len returns the current number of registered APIs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Register commits a definition. It fails with a ConflictError when the name
// is already present or the registry is at capacity.
func (r *Registry) Register(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claim(def.Name); err != nil {
		return err
	}
	r.entries[def.Name] = def
	return nil
}

// Reserve claims a name without publishing a definition. The reservation
// counts against capacity and blocks other registrations, but lookups treat
// the name as absent until Commit. A failed creation pipeline must Release.
func (r *Registry) Reserve(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claim(name); err != nil {
		return err
	}
	r.entries[name] = nil
	return nil
}

// Commit publishes the definition for a previously reserved name.
func (r *Registry) Commit(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, reserved := r.entries[def.Name]
	if !reserved {
		return &NotFoundError{Name: def.Name}
	}
	if existing != nil {
		return &ConflictError{Name: def.Name, cause: ErrAPIExists}
	}
	r.entries[def.Name] = def
	return nil
}

// Release drops an uncommitted reservation. Committed definitions are left
// untouched; use Unregister for those.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def, ok := r.entries[name]; ok && def == nil {
		delete(r.entries, name)
	}
}

// claim checks uniqueness and capacity under the caller's lock.
func (r *Registry) claim(name string) error {
	if _, exists := r.entries[name]; exists {
		return &ConflictError{Name: name, cause: ErrAPIExists}
	}
	if len(r.entries) >= r.capacity {
		return &ConflictError{Name: name, Capacity: r.capacity, cause: ErrRegistryFull}
	}
	return nil
}

// Get resolves the definition for a name.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.entries[name]
	if !ok || def == nil {
		return nil, &NotFoundError{Name: name}
	}
	return def, nil
}

// Has reports whether a name is currently registered. Reservations do not
// count; a name is visible only once committed.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[name]
	return ok && def != nil
}

// List returns a point-in-time snapshot sorted by name. Mutations that land
// after the snapshot is taken are not reflected, which keeps iteration safe
// while concurrent creations and deletions occur.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.entries))
	for _, def := range r.entries {
		if def == nil {
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unregister removes a definition and returns it, failing with NotFoundError
// when the name is absent.
func (r *Registry) Unregister(name string) (*Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.entries[name]
	if !ok || def == nil {
		return nil, &NotFoundError{Name: name}
	}
	delete(r.entries, name)
	return def, nil
}
