/*
Package instrument provides the measurement core of the Gantry harness.

It connects values emitted inside otherwise opaque code paths (model forward
passes, attack iterations) to independent observers, without either side
knowing about the other. The three moving parts are:

  - Probe: a named emission point. Code under observation calls
    Probe.Update with the quantities it wants to expose.
  - Meter: a subscriber bound to one argument path ("namespace.variable").
    It applies a metric function to each matching emission and forwards the
    result to a Recorder.
  - Hub: the router. It owns the namespace and subscription registries and
    dispatches every emission, synchronously and in connection order, to the
    meters subscribed to the exact path.

Probes and meters never hold references to each other; the shared string key
is the only coupling. Emitting on a path with no subscribers is a cheap no-op,
so instrumentation can stay in place permanently.
*/
package instrument
