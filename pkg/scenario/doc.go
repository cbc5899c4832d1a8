/*
Package scenario defines the harness's view of an evaluation driver and the
domain types flowing through one run.

A Scenario owns the model, the data and the attack; the harness only knows
that it can be loaded, advanced one batch at a time, and asked to attack a
batch. All measurement happens through instrument probes inside the scenario,
so the harness never touches model internals.

Synthetic is a self-contained reference scenario (random-projection model,
noise-step attack) used by the examples, the CLI default and the tests.
*/
package scenario
