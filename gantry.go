package gantry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kestrelml/gantry/internal/logging"
	"github.com/kestrelml/gantry/internal/runtime"
	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/scenario"
)

// Harness is the high-level entry point: one scenario, one hub, a set of
// connected meters, and the loop that drives them.
type Harness struct {
	scenario   scenario.Scenario
	hub        *instrument.Hub
	meters     []instrument.Subscriber
	recorder   instrument.Recorder
	hooks      scenario.LifecycleHooks
	logger     *slog.Logger
	maxBatches int
	engine     *runtime.Engine
}

// Option defines a functional option for configuring the Harness.
type Option func(*Harness)

// WithHub uses an explicit hub instead of the process default. Recommended
// whenever two runs may share a process.
func WithHub(hub *instrument.Hub) Option {
	return func(h *Harness) {
		h.hub = hub
	}
}

// WithMeters connects the given meters to the harness hub at construction.
func WithMeters(meters ...instrument.Subscriber) Option {
	return func(h *Harness) {
		h.meters = append(h.meters, meters...)
	}
}

// WithRecorder sets the recording sink on every connected meter that accepts
// one (Meter and JointMeter both do).
func WithRecorder(r instrument.Recorder) Option {
	return func(h *Harness) {
		h.recorder = r
	}
}

// WithLifecycleHooks registers loop observability callbacks.
func WithLifecycleHooks(hooks scenario.LifecycleHooks) Option {
	return func(h *Harness) {
		h.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithMaxBatches caps the run length regardless of the scenario.
func WithMaxBatches(n int) Option {
	return func(h *Harness) {
		h.maxBatches = n
	}
}

// recorderSetter is what WithRecorder needs from a meter.
type recorderSetter interface {
	SetRecorder(instrument.Recorder)
}

// New initializes a Harness around the given scenario.
func New(sc scenario.Scenario, opts ...Option) (*Harness, error) {
	if sc == nil {
		return nil, fmt.Errorf("scenario is required")
	}

	h := &Harness{scenario: sc}
	for _, opt := range opts {
		opt(h)
	}
	if h.hub == nil {
		h.hub = instrument.Default()
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	for _, m := range h.meters {
		if h.recorder != nil {
			if s, ok := m.(recorderSetter); ok {
				s.SetRecorder(h.recorder)
			}
		}
		if err := h.hub.ConnectMeter(m); err != nil {
			return nil, fmt.Errorf("connect meter %q: %w", m.Name(), err)
		}
	}

	h.engine = runtime.NewEngine(sc,
		runtime.WithHub(h.hub),
		runtime.WithLifecycleHooks(h.hooks),
		runtime.WithLogger(h.logger),
		runtime.WithMaxBatches(h.maxBatches),
	)
	return h, nil
}

// Run executes the evaluation loop to completion. Every meter record has
// been written when Run returns.
func (h *Harness) Run(ctx context.Context) error {
	return h.engine.Run(ctx)
}

// Hub returns the hub the harness routes through.
func (h *Harness) Hub() *instrument.Hub {
	return h.hub
}

// GetProbe returns the probe bound to namespace on the process-wide hub,
// creating it if needed.
func GetProbe(namespace string) (*instrument.Probe, error) {
	return instrument.Default().Probe(namespace)
}

// MustProbe is GetProbe for static namespaces; it panics on an invalid one.
func MustProbe(namespace string) *instrument.Probe {
	p, err := GetProbe(namespace)
	if err != nil {
		panic(err)
	}
	return p
}

// GetHub returns the process-wide hub.
func GetHub() *instrument.Hub {
	return instrument.Default()
}

// ResetHub discards the process-wide hub. Call between unrelated runs that
// share a process.
func ResetHub() {
	instrument.ResetDefault()
}

// Connect registers a meter on the process-wide hub.
func Connect(meter instrument.Subscriber) error {
	return instrument.Default().ConnectMeter(meter)
}
