package metrics

import (
	"fmt"
	"sort"
	"sync"
)

// Kind distinguishes single-operand metrics from pair metrics.
type Kind int

const (
	KindSingle Kind = iota
	KindPair
)

// Entry is one registered metric.
type Entry struct {
	Name   string
	Kind   Kind
	Single Func
	Pair   PairFunc
}

// Registry maps metric names to functions. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a registry pre-populated with the built-in metrics.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}
	r.RegisterSingle("sum", Sum)
	r.RegisterSingle("mean", Mean)
	r.RegisterSingle("max", Max)
	r.RegisterPair("l0", L0)
	r.RegisterPair("l1", L1)
	r.RegisterPair("l2", L2)
	r.RegisterPair("linf", Linf)
	r.RegisterPair("categorical_accuracy", CategoricalAccuracy)
	return r
}

// RegisterSingle adds a single-operand metric. An existing name is overwritten.
func (r *Registry) RegisterSingle(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Entry{Name: name, Kind: KindSingle, Single: fn}
}

// RegisterPair adds a pair metric. An existing name is overwritten.
func (r *Registry) RegisterPair(name string, fn PairFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Entry{Name: name, Kind: KindPair, Pair: fn}
}

// Get looks up a metric by name.
func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("metric not found: %s", name)
	}
	return e, nil
}

// Supported reports whether name is a registered metric.
func (r *Registry) Supported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered metric names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry holding the built-in metrics.
func Default() *Registry { return defaultRegistry }

// Get looks up a metric in the default registry.
func Get(name string) (Entry, error) { return defaultRegistry.Get(name) }

// Supported reports whether the default registry knows the metric.
func Supported(name string) bool { return defaultRegistry.Supported(name) }

// Names lists the default registry's metric names, sorted.
func Names() []string { return defaultRegistry.Names() }
