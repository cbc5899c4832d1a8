package hook

import (
	"fmt"
	"reflect"
	"sync"
)

// binding holds the active hooks for one method of one receiver or type.
type binding struct {
	pre   PreHook
	post  PostHook
	style PostStyle
}

// Option configures an installation.
type Option func(*binding)

// WithPre sets the callback invoked before the original method.
func WithPre(f PreHook) Option {
	return func(b *binding) {
		b.pre = f
	}
}

// WithPost sets the callback invoked after the original method returns,
// and the shape of the arguments it receives.
func WithPost(f PostHook, style PostStyle) Option {
	return func(b *binding) {
		b.post = f
		b.style = style
	}
}

// Original is the unwrapped method, bound to its receiver. Installation
// returns it so the caller can invoke pre-hook behavior directly or keep it
// for restoration checks.
type Original func(args ...any) ([]any, error)

// Table is the indirection point for hookable method calls. Calls routed
// through Table.Call consult the table: an installation for that exact
// receiver wins, then one for the receiver's type, otherwise the method runs
// unhooked. The table never changes what a call returns.
//
// Safe for concurrent use. Nested hooked calls are fine: every Call resolves
// its binding independently and keeps no shared call state.
type Table struct {
	mu        sync.RWMutex
	instances map[any]map[string]*binding
	types     map[reflect.Type]map[string]*binding
}

// NewTable creates an empty indirection table.
func NewTable() *Table {
	return &Table{
		instances: make(map[any]map[string]*binding),
		types:     make(map[reflect.Type]map[string]*binding),
	}
}

// Install hooks the named method for this receiver only. Other receivers of
// the same type are unaffected. It returns the original method bound to the
// receiver, and fails fast with ErrInvalidTarget or ErrNotCallable when the
// target cannot be hooked.
func (t *Table) Install(recv any, method string, opts ...Option) (Original, error) {
	orig, err := bind(recv, method)
	if err != nil {
		return nil, err
	}
	// Instance bindings are keyed by the receiver value itself, so the
	// receiver must be usable as a map key. Non-comparable receivers (value
	// types carrying a slice or map) can still be hooked via InstallType.
	if !reflect.TypeOf(recv).Comparable() {
		return nil, fmt.Errorf("%w: %T is not comparable; hook the type with InstallType", ErrInvalidTarget, recv)
	}

	b := &binding{}
	for _, opt := range opts {
		opt(b)
	}

	t.mu.Lock()
	if t.instances[recv] == nil {
		t.instances[recv] = make(map[string]*binding)
	}
	t.instances[recv][method] = b
	t.mu.Unlock()

	return orig, nil
}

// InstallType hooks the named method for every current and future receiver
// whose dynamic type matches recv's. recv is only used as the type exemplar;
// the returned Original is bound to it.
func (t *Table) InstallType(recv any, method string, opts ...Option) (Original, error) {
	orig, err := bind(recv, method)
	if err != nil {
		return nil, err
	}

	b := &binding{}
	for _, opt := range opts {
		opt(b)
	}

	rt := reflect.TypeOf(recv)
	t.mu.Lock()
	if t.types[rt] == nil {
		t.types[rt] = make(map[string]*binding)
	}
	t.types[rt][method] = b
	t.mu.Unlock()

	return orig, nil
}

// Uninstall removes an instance hook. Unknown installations are a no-op.
func (t *Table) Uninstall(recv any, method string) {
	if recv == nil || !reflect.TypeOf(recv).Comparable() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if m := t.instances[recv]; m != nil {
		delete(m, method)
		if len(m) == 0 {
			delete(t.instances, recv)
		}
	}
}

// UninstallType removes a type-wide hook. Unknown installations are a no-op.
func (t *Table) UninstallType(recv any, method string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rt := reflect.TypeOf(recv)
	if m := t.types[rt]; m != nil {
		delete(m, method)
		if len(m) == 0 {
			delete(t.types, rt)
		}
	}
}

// Call invokes the named method on recv through the table. The returned slice
// holds the method's return values unchanged; the error reports dispatch
// failures only (bad receiver, unknown method, argument mismatch), never the
// method's own failure. Panics raised by the method propagate unchanged.
func (t *Table) Call(recv any, method string, args ...any) ([]any, error) {
	m, err := resolveMethod(recv, method)
	if err != nil {
		return nil, err
	}
	in, err := anyToValues(m.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", method, err)
	}

	b := t.lookup(recv, method)

	if b != nil && b.pre != nil {
		b.pre(recv, args)
	}
	out := m.Call(in)
	if b != nil && b.post != nil {
		firePost(b.post, b.style, recv, out)
	}
	return valuesToAny(out), nil
}

func (t *Table) lookup(recv any, method string) *binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	// A non-comparable receiver can never have an instance binding, and
	// indexing the map with it would panic.
	if reflect.TypeOf(recv).Comparable() {
		if m := t.instances[recv]; m != nil {
			if b, ok := m[method]; ok {
				return b
			}
		}
	}
	if m := t.types[reflect.TypeOf(recv)]; m != nil {
		if b, ok := m[method]; ok {
			return b
		}
	}
	return nil
}

// bind validates the target and returns the unwrapped method as an Original.
func bind(recv any, method string) (Original, error) {
	m, err := resolveMethod(recv, method)
	if err != nil {
		return nil, err
	}
	return func(args ...any) ([]any, error) {
		in, err := anyToValues(m.Type(), args)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", method, err)
		}
		return valuesToAny(m.Call(in)), nil
	}, nil
}

func resolveMethod(recv any, method string) (reflect.Value, error) {
	if recv == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil receiver", ErrInvalidTarget)
	}
	rv := reflect.ValueOf(recv)
	if !rv.IsValid() || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return reflect.Value{}, fmt.Errorf("%w: %T", ErrInvalidTarget, recv)
	}
	m := rv.MethodByName(method)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %T has no method %q", ErrNotCallable, recv, method)
	}
	return m, nil
}

var defaultTable = NewTable()

// DefaultTable returns the process-wide table used by the package-level
// Install and Call helpers.
func DefaultTable() *Table { return defaultTable }

// Install hooks a method on the default table. See Table.Install.
func Install(recv any, method string, opts ...Option) (Original, error) {
	return defaultTable.Install(recv, method, opts...)
}

// InstallType hooks a method type-wide on the default table. See Table.InstallType.
func InstallType(recv any, method string, opts ...Option) (Original, error) {
	return defaultTable.InstallType(recv, method, opts...)
}

// Call invokes a method through the default table. See Table.Call.
func Call(recv any, method string, args ...any) ([]any, error) {
	return defaultTable.Call(recv, method, args...)
}
