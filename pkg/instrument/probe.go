package instrument

import (
	"context"
	"sort"
)

// Values carries the named quantities of one emission.
type Values map[string]any

// TransformFunc is applied to an emitted value before dispatch. It is the
// place for representation conversions (detaching a tensor, copying to host
// memory) that should only happen when something is actually measuring.
type TransformFunc func(value any) any

// Probe is a named emission point. It holds no state beyond its namespace and
// hub reference; every emission is routed through the hub, so probes stay
// fully decoupled from the meters observing them.
//
// Probes are created through Hub.Probe (or the gantry.GetProbe facade), which
// guarantees one probe identity per namespace.
type Probe struct {
	namespace string
	hub       *Hub
}

// Namespace returns the probe's namespace.
func (p *Probe) Namespace() string { return p.namespace }

// Update emits every named value on "<namespace>.<name>". Names are emitted
// in sorted order; dispatch to the subscribers of one path happens in their
// connection order. Emitting with no subscribers is a no-op.
func (p *Probe) Update(ctx context.Context, values Values) {
	p.UpdateWith(ctx, nil, values)
}

// UpdateWith is Update with a shared transform applied to each value first.
// The transform only runs when the path has at least one live subscriber, so
// expensive conversions cost nothing while unobserved.
func (p *Probe) UpdateWith(ctx context.Context, transform TransformFunc, values Values) {
	if len(values) == 0 {
		return
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := ArgumentPath{Namespace: p.namespace, Variable: name}
		if !p.hub.IsMeasuring(path) {
			continue
		}
		value := values[name]
		if transform != nil {
			value = transform(value)
		}
		p.hub.Dispatch(ctx, path, value)
	}
}
