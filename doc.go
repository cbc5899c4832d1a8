/*
Package gantry is an instrumentation harness for adversarial-robustness
evaluations. It extracts named intermediate values from opaque call graphs
(model forward passes, attack iterations) while an evaluation loop runs, and
routes them to independent observers without coupling either side.

# Concept

Code under evaluation emits values through a Probe; Meters subscribe to
"namespace.variable" argument paths and transform what arrives; the Hub routes
every emission, synchronously, to the meters subscribed to the exact path.
Code that cannot be edited at all is observed through the hook package, which
intercepts method calls without changing their arguments, results or failure
behavior.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/kestrelml/gantry"
		"github.com/kestrelml/gantry/pkg/instrument"
		"github.com/kestrelml/gantry/pkg/record/memory"
		"github.com/kestrelml/gantry/pkg/scenario"
	)

	func main() {
		hub := instrument.NewHub()
		results := memory.NewRecorder()

		meter, err := instrument.NewMeter("x_adv_sum",
			func(v any) (any, error) { return v, nil },
			"attack.x_adv",
			instrument.WithRecorder(results),
		)
		if err != nil {
			log.Fatal(err)
		}

		h, err := gantry.New(scenario.NewSynthetic(hub),
			gantry.WithHub(hub),
			gantry.WithMeters(meter),
		)
		if err != nil {
			log.Fatal(err)
		}
		if err := h.Run(context.Background()); err != nil {
			log.Fatal(err)
		}

		for name, values := range results.Collate() {
			log.Printf("%s: %d records", name, len(values))
		}
	}
*/
package gantry
