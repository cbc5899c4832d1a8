package cli

import (
	"fmt"
	"os"

	"github.com/kestrelml/gantry/internal/presentation/graph"
	"github.com/kestrelml/gantry/pkg/instrument"
)

// ExecuteGraph prints the probe-to-meter wiring a config would produce,
// without running the evaluation.
func ExecuteGraph(configPath string, mermaid bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	hub := instrument.NewHub()
	meters, err := BuildMeters(cfg.Meters, instrument.NullRecorder{})
	if err != nil {
		return err
	}
	for _, m := range meters {
		if err := hub.ConnectMeter(m); err != nil {
			return err
		}
	}

	if mermaid {
		fmt.Fprint(os.Stdout, graph.GenerateMermaid(hub))
		return nil
	}
	fmt.Fprint(os.Stdout, graph.Summary(hub))
	return nil
}
