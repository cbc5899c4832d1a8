package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// subscription pairs a subscriber with the declared path it registered under,
// including any stage filter.
type subscription struct {
	sub  Subscriber
	path ArgumentPath
}

// Hub routes probe emissions to subscribed meters. It owns the
// namespace-to-probe registry and the per-path subscriber lists, and is the
// only way a value travels from a probe to a meter.
//
// All registries are guarded for concurrent use: connecting a meter while a
// dispatch is in flight is safe, because dispatch iterates a snapshot of the
// subscriber list. Dispatch itself is synchronous and completes before the
// instrumented call returns.
type Hub struct {
	mu     sync.RWMutex
	probes map[string]*Probe
	subs   map[string][]subscription
	order  []Subscriber
	stage  string
	batch  int
	logger *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the logger used to report isolated meter failures.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates an empty hub. Evaluation runs that must not share state
// should each create their own hub rather than rely on Default.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		probes: make(map[string]*Probe),
		subs:   make(map[string][]subscription),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Probe returns the probe bound to namespace, creating it on first use.
// Repeated calls with the same namespace return the same probe, so routing
// stays consistent no matter where the probe handle was obtained.
func (h *Hub) Probe(namespace string) (*Probe, error) {
	if !isIdentifier(namespace) {
		return nil, fmt.Errorf("%w: %q must be an identifier", ErrInvalidNamespace, namespace)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.probes[namespace]; ok {
		return p, nil
	}
	p := &Probe{namespace: namespace, hub: h}
	h.probes[namespace] = p
	return p, nil
}

// ConnectMeter registers the subscriber under each of its argument paths.
// Connecting the same subscriber twice is a no-op per path, so a meter never
// double-dispatches.
func (h *Hub) ConnectMeter(sub Subscriber) error {
	if sub == nil {
		return fmt.Errorf("cannot connect a nil subscriber")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seen := false
	for _, existing := range h.order {
		if existing == sub {
			seen = true
			break
		}
	}
	if !seen {
		h.order = append(h.order, sub)
	}

	for _, p := range sub.Paths() {
		key := p.key()
		dup := false
		for _, entry := range h.subs[key] {
			if entry.sub == sub && entry.path == p {
				dup = true
				break
			}
		}
		if dup {
			h.logger.Warn("meter already connected, not adding",
				"meter", sub.Name(), "path", p.String())
			continue
		}
		h.subs[key] = append(h.subs[key], subscription{sub: sub, path: p})
	}
	return nil
}

// DisconnectMeter removes every subscription of the given subscriber.
// Disconnecting an unknown subscriber is a no-op.
func (h *Hub) DisconnectMeter(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, entries := range h.subs {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.sub != sub {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(h.subs, key)
		} else {
			h.subs[key] = kept
		}
	}
	for i, existing := range h.order {
		if existing == sub {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Subscribers returns the connected subscribers in connection order.
func (h *Hub) Subscribers() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Subscriber, len(h.order))
	copy(out, h.order)
	return out
}

// IsMeasuring reports whether at least one live subscription matches the path
// in the current stage. Probes use it to skip transforms for unobserved values.
func (h *Hub) IsMeasuring(path ArgumentPath) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, entry := range h.subs[path.key()] {
		if entry.path.Stage == "" || entry.path.Stage == h.stage {
			return true
		}
	}
	return false
}

// Dispatch routes one emitted value to every subscriber of the exact path,
// in connection order. A failing or panicking subscriber is logged and
// skipped; siblings still run and the caller is never affected.
func (h *Hub) Dispatch(ctx context.Context, path ArgumentPath, value any) {
	h.mu.RLock()
	entries := h.subs[path.key()]
	snapshot := make([]subscription, len(entries))
	copy(snapshot, entries)
	stage, batch := h.stage, h.batch
	h.mu.RUnlock()

	for _, entry := range snapshot {
		if entry.path.Stage != "" && entry.path.Stage != stage {
			continue
		}
		// Subscribers are handed the path they declared, so a stage-filtered
		// subscription sees its own filter, not the bare emitted path.
		h.observe(ctx, entry.sub, entry.path, value, batch)
	}
}

func (h *Hub) observe(ctx context.Context, sub Subscriber, path ArgumentPath, value any, batch int) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("meter panicked during dispatch",
				"meter", sub.Name(), "path", path.String(), "panic", r)
		}
	}()
	if err := sub.Observe(ctx, path, value, batch); err != nil {
		h.logger.Error("meter failed during dispatch",
			"meter", sub.Name(), "path", path.String(), "error", err)
	}
}

// SetStage records the current evaluation stage (e.g. "benign", "attack",
// "adversarial"). Stage-filtered subscriptions only fire in their stage.
func (h *Hub) SetStage(stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stage = stage
}

// Stage returns the current evaluation stage.
func (h *Hub) Stage() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stage
}

// SetBatch records the current batch index, stamped onto every record.
func (h *Hub) SetBatch(batch int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batch = batch
}

// NextBatch advances the batch index and returns the new value.
func (h *Hub) NextBatch() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batch++
	return h.batch
}

// Batch returns the current batch index.
func (h *Hub) Batch() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.batch
}

var (
	defaultMu  sync.Mutex
	defaultHub *Hub
)

// Default returns the process-wide hub, creating it on first use. Prefer an
// explicit NewHub per evaluation run; Default exists so lightweight
// instrumentation can be dropped into code with no wiring at all.
func Default() *Hub {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHub == nil {
		defaultHub = NewHub()
	}
	return defaultHub
}

// ResetDefault discards the process-wide hub, including every probe and
// subscription registered on it. Call between evaluation runs that share a
// process but must not share instrumentation state.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHub = nil
}
