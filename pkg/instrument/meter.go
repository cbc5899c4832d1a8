package instrument

import (
	"context"
	"fmt"
	"sync"
)

// MetricFunc transforms an emitted value into a measured result.
type MetricFunc func(value any) (any, error)

// Identity is the MetricFunc that records the emitted value unchanged.
func Identity(value any) (any, error) { return value, nil }

// Subscriber is what the hub routes emissions to. Meter and JointMeter are
// the two implementations; anything else that declares its paths can be
// connected the same way.
type Subscriber interface {
	// Name identifies the subscriber to operators. It is not used for routing.
	Name() string
	// Paths returns the argument paths the subscriber wants to receive.
	Paths() []ArgumentPath
	// Observe is called once per matching emission, synchronously, in
	// connection order. An error is logged by the hub and never reaches the
	// instrumented call.
	Observe(ctx context.Context, path ArgumentPath, value any, batch int) error
}

// Meter subscribes to exactly one argument path, applies its metric function
// to each matching emission and forwards the result to its recorder.
type Meter struct {
	name     string
	fn       MetricFunc
	path     ArgumentPath
	recorder Recorder
}

// MeterOption configures a Meter.
type MeterOption func(*Meter)

// WithRecorder sets the sink the meter writes results to.
// The default is NullRecorder.
func WithRecorder(r Recorder) MeterOption {
	return func(m *Meter) {
		m.recorder = r
	}
}

// NewMeter creates a meter named name, subscribed to the given argument path.
// The path must parse as "namespace.variable" with an optional "[stage]"
// filter. The meter is not connected to any hub yet; see Hub.ConnectMeter.
func NewMeter(name string, fn MetricFunc, path string, opts ...MeterOption) (*Meter, error) {
	if fn == nil {
		return nil, fmt.Errorf("meter %q: metric function must not be nil", name)
	}
	p, err := ParseArgumentPath(path)
	if err != nil {
		return nil, fmt.Errorf("meter %q: %w", name, err)
	}

	m := &Meter{
		name:     name,
		fn:       fn,
		path:     p,
		recorder: NullRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the operator-facing meter name.
func (m *Meter) Name() string { return m.name }

// Paths returns the single path the meter subscribes to.
func (m *Meter) Paths() []ArgumentPath { return []ArgumentPath{m.path} }

// SetRecorder replaces the meter's sink. Intended for setup time, before the
// meter is connected.
func (m *Meter) SetRecorder(r Recorder) {
	if r == nil {
		r = NullRecorder{}
	}
	m.recorder = r
}

// Observe applies the metric function and writes the result.
func (m *Meter) Observe(ctx context.Context, path ArgumentPath, value any, batch int) error {
	out, err := m.fn(value)
	if err != nil {
		return fmt.Errorf("meter %q: metric failed on %s: %w", m.name, path, err)
	}
	if err := m.recorder.Write(ctx, Record{Meter: m.name, Batch: batch, Value: out}); err != nil {
		return fmt.Errorf("meter %q: recorder failed: %w", m.name, err)
	}
	return nil
}

// MultiMetricFunc computes a result from one value per subscribed path, in
// path order.
type MultiMetricFunc func(values []any) (any, error)

// JointMeter subscribes to several argument paths and fires its metric once
// every operand for the same batch has arrived. Typical use: a distance
// between the benign and adversarial versions of the same quantity.
type JointMeter struct {
	name     string
	fn       MultiMetricFunc
	paths    []ArgumentPath
	index    map[string]int
	recorder Recorder

	mu      sync.Mutex
	values  []any
	set     []bool
	batches []int
}

// NewJointMeter creates a joint meter over two or more argument paths.
func NewJointMeter(name string, fn MultiMetricFunc, paths ...string) (*JointMeter, error) {
	if fn == nil {
		return nil, fmt.Errorf("joint meter %q: metric function must not be nil", name)
	}
	if len(paths) < 2 {
		return nil, fmt.Errorf("joint meter %q: need at least two argument paths", name)
	}

	m := &JointMeter{
		name:     name,
		fn:       fn,
		index:    make(map[string]int, len(paths)),
		recorder: NullRecorder{},
		values:   make([]any, len(paths)),
		set:      make([]bool, len(paths)),
		batches:  make([]int, len(paths)),
	}
	for i, raw := range paths {
		p, err := ParseArgumentPath(raw)
		if err != nil {
			return nil, fmt.Errorf("joint meter %q: %w", name, err)
		}
		if _, dup := m.index[p.String()]; dup {
			return nil, fmt.Errorf("joint meter %q: duplicate argument path %s", name, p)
		}
		m.index[p.String()] = i
		m.paths = append(m.paths, p)
	}
	return m, nil
}

// Name returns the operator-facing meter name.
func (m *JointMeter) Name() string { return m.name }

// Paths returns the subscribed paths in constructor order.
func (m *JointMeter) Paths() []ArgumentPath { return m.paths }

// SetRecorder replaces the meter's sink.
func (m *JointMeter) SetRecorder(r Recorder) {
	if r == nil {
		r = NullRecorder{}
	}
	m.recorder = r
}

// Observe stores the operand for its slot and measures once all slots hold
// values from the same batch. Slots from older batches simply wait to be
// overwritten; mismatched batches never fire.
func (m *JointMeter) Observe(ctx context.Context, path ArgumentPath, value any, batch int) error {
	i, ok := m.index[path.String()]
	if !ok {
		return fmt.Errorf("joint meter %q: not subscribed to %s", m.name, path)
	}

	m.mu.Lock()
	m.values[i] = value
	m.set[i] = true
	m.batches[i] = batch
	if !m.ready() {
		m.mu.Unlock()
		return nil
	}
	operands := make([]any, len(m.values))
	copy(operands, m.values)
	m.clearLocked()
	m.mu.Unlock()

	out, err := m.fn(operands)
	if err != nil {
		return fmt.Errorf("joint meter %q: metric failed: %w", m.name, err)
	}
	if err := m.recorder.Write(ctx, Record{Meter: m.name, Batch: batch, Value: out}); err != nil {
		return fmt.Errorf("joint meter %q: recorder failed: %w", m.name, err)
	}
	return nil
}

func (m *JointMeter) ready() bool {
	for _, s := range m.set {
		if !s {
			return false
		}
	}
	for _, b := range m.batches[1:] {
		if b != m.batches[0] {
			return false
		}
	}
	return true
}

func (m *JointMeter) clearLocked() {
	for i := range m.set {
		m.values[i] = nil
		m.set[i] = false
	}
}
