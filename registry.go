package inputs

import "sort"

// Registry holds the targets of one kind: the names registered, the values
// resolved for them and the names that failed to resolve.
type Registry[T Value] struct {
	kind          Kind
	targets       map[string]struct{}
	resolved      map[string]T
	failed        map[string]struct{}
	resolveCalled bool
	allResolved   bool
	// generation counts Clear calls.
	generation int
}

func newRegistry[T Value]() *Registry[T] {
	return &Registry[T]{
		kind:     KindOf[T](),
		targets:  map[string]struct{}{},
		resolved: map[string]T{},
		failed:   map[string]struct{}{},
	}
}

// Kind returns the kind this registry stores.
func (r *Registry[T]) Kind() Kind {
	return r.kind
}

// Register adds name to the target set. It returns false when name was
// already registered.
func (r *Registry[T]) Register(name string) bool {
	if _, exists := r.targets[name]; exists {
		return false
	}
	r.targets[name] = struct{}{}
	return true
}

// Registered reports whether name is a target.
func (r *Registry[T]) Registered(name string) bool {
	_, ok := r.targets[name]
	return ok
}

// Targets returns the registered names sorted alphabetically.
func (r *Registry[T]) Targets() []string {
	return sortedKeys(r.targets)
}

// Failed returns the names that failed the last pass, sorted.
func (r *Registry[T]) Failed() []string {
	return sortedKeys(r.failed)
}

// Value returns the resolved value for name.
func (r *Registry[T]) Value(name string) (T, bool) {
	v, ok := r.resolved[name]
	return v, ok
}

// IsResolved reports whether name holds a resolved value.
func (r *Registry[T]) IsResolved(name string) bool {
	_, ok := r.resolved[name]
	return ok
}

// TargetSet exposes the internal target set.
func (r *Registry[T]) TargetSet() map[string]struct{} {
	return r.targets
}

// ResolvedMap exposes the internal name to value map.
func (r *Registry[T]) ResolvedMap() map[string]T {
	return r.resolved
}

// FailedSet exposes the internal set of names that failed to resolve.
func (r *Registry[T]) FailedSet() map[string]struct{} {
	return r.failed
}

// ResolveCalled reports whether a resolution pass ran since the last Clear.
func (r *Registry[T]) ResolveCalled() bool {
	return r.resolveCalled
}

// AllResolved reports whether the last pass resolved every target.
func (r *Registry[T]) AllResolved() bool {
	return r.allResolved
}

// Clear empties the registry and resets its flags.
func (r *Registry[T]) Clear() {
	clear(r.targets)
	clear(r.resolved)
	clear(r.failed)
	r.resolveCalled = false
	r.allResolved = false
	r.generation++
}

// Generation changes every time the registry is cleared.
func (r *Registry[T]) Generation() int {
	return r.generation
}

func (r *Registry[T]) store(name string, value T) {
	r.resolved[name] = value
	delete(r.failed, name)
}

func (r *Registry[T]) fail(name string) {
	r.failed[name] = struct{}{}
	delete(r.resolved, name)
}

func (r *Registry[T]) finish() bool {
	r.resolveCalled = true
	r.allResolved = len(r.failed) == 0
	return r.allResolved
}

func (r *Registry[T]) lookup(name string) (any, bool) {
	v, ok := r.resolved[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// kindRegistry is the kind-agnostic view of a Registry used by operations
// that walk every kind.
type kindRegistry interface {
	Kind() Kind
	Register(name string) bool
	Targets() []string
	Failed() []string
	Clear()
	ResolveCalled() bool
	AllResolved() bool
	lookup(name string) (any, bool)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
