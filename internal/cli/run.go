package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrelml/gantry"
	"github.com/kestrelml/gantry/internal/logging"
	"github.com/kestrelml/gantry/internal/presentation/tui"
	"github.com/kestrelml/gantry/internal/server"
	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/metrics"
	"github.com/kestrelml/gantry/pkg/record/logrec"
	"github.com/kestrelml/gantry/pkg/record/memory"
	"github.com/kestrelml/gantry/pkg/record/prom"
	redisrec "github.com/kestrelml/gantry/pkg/record/redis"
	"github.com/kestrelml/gantry/pkg/scenario"
)

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	ServeAddr  string
	JSON       bool
	LogLevel   string
	NoBanner   bool
}

// ExecuteRun runs one evaluation as described by the config file.
func ExecuteRun(opts RunOptions) error {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level, opts.JSON)

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if !opts.NoBanner && !opts.JSON {
		tui.PrintBanner()
	}

	hub := instrument.NewHub(instrument.WithLogger(logger))

	// The memory recorder always participates: the report and the /records
	// endpoint read from it.
	results := memory.NewRecorder()
	recorders := []instrument.Recorder{results}

	switch cfg.Recorder.Kind {
	case "memory":
	case "log":
		recorders = append(recorders, logrec.NewRecorder(logger))
	case "redis":
		rc := cfg.Recorder.Redis
		if rc.Address == "" {
			return fmt.Errorf("recorder: redis requires an address")
		}
		var redisOpts []redisrec.Option
		if rc.Key != "" {
			redisOpts = append(redisOpts, redisrec.WithKey(rc.Key))
		}
		rec := redisrec.New(rc.Address, rc.Password, rc.DB, redisOpts...)
		defer rec.Close()
		recorders = append(recorders, rec)
	default:
		return fmt.Errorf("recorder: unknown kind %q", cfg.Recorder.Kind)
	}

	var gatherer prometheus.Gatherer
	if cfg.Prometheus {
		registry := prometheus.NewRegistry()
		promRec, err := prom.NewRecorder(registry)
		if err != nil {
			return fmt.Errorf("prometheus recorder: %w", err)
		}
		recorders = append(recorders, promRec)
		gatherer = registry
	}

	recorder := instrument.MultiRecorder(recorders...)

	meters, err := BuildMeters(cfg.Meters, recorder)
	if err != nil {
		return err
	}

	sc, err := buildScenario(cfg.Scenario, hub)
	if err != nil {
		return err
	}

	harness, err := gantry.New(sc,
		gantry.WithHub(hub),
		gantry.WithMeters(meters...),
		gantry.WithLogger(logger),
		gantry.WithMaxBatches(cfg.MaxBatches),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.ServeAddr != "" {
		handler := server.NewHandler(hub, results, gatherer)
		go func() {
			if err := server.Serve(ctx, opts.ServeAddr, handler, logger); err != nil {
				logger.Error("introspection server failed", "error", err)
			}
		}()
	}

	if err := harness.Run(ctx); err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	return WriteReport(os.Stdout, results)
}

// BuildMeters resolves metric names against the registry and constructs the
// configured meters, all writing to the given recorder.
func BuildMeters(configs []MeterConfig, recorder instrument.Recorder) ([]instrument.Subscriber, error) {
	out := make([]instrument.Subscriber, 0, len(configs))
	for _, mc := range configs {
		entry, err := metrics.Get(mc.Metric)
		if err != nil {
			return nil, fmt.Errorf("meter %q: %w", mc.Name, err)
		}

		switch {
		case mc.Path != "":
			if entry.Kind != metrics.KindSingle {
				return nil, fmt.Errorf("meter %q: metric %q compares two paths, use 'paths'", mc.Name, mc.Metric)
			}
			m, err := instrument.NewMeter(mc.Name, instrument.MetricFunc(entry.Single), mc.Path,
				instrument.WithRecorder(recorder))
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		default:
			if entry.Kind != metrics.KindPair {
				return nil, fmt.Errorf("meter %q: metric %q takes a single path, use 'path'", mc.Name, mc.Metric)
			}
			m, err := instrument.NewJointMeter(mc.Name, instrument.MultiMetricFunc(entry.Pair), mc.Paths...)
			if err != nil {
				return nil, err
			}
			m.SetRecorder(recorder)
			out = append(out, m)
		}
	}
	return out, nil
}

func buildScenario(cfg ScenarioConfig, hub *instrument.Hub) (scenario.Scenario, error) {
	switch cfg.Name {
	case "synthetic":
		params, err := DecodeSyntheticParams(cfg.Params)
		if err != nil {
			return nil, err
		}
		var opts []scenario.SyntheticOption
		if params.Batches > 0 {
			opts = append(opts, scenario.WithBatches(params.Batches))
		}
		if params.InputDim > 0 {
			opts = append(opts, scenario.WithInputDim(params.InputDim))
		}
		if params.Classes > 0 {
			opts = append(opts, scenario.WithClasses(params.Classes))
		}
		if params.AttackSteps > 0 {
			opts = append(opts, scenario.WithAttackSteps(params.AttackSteps))
		}
		if params.Epsilon > 0 {
			opts = append(opts, scenario.WithEpsilon(params.Epsilon))
		}
		if params.Seed != 0 {
			opts = append(opts, scenario.WithSeed(params.Seed))
		}
		return scenario.NewSynthetic(hub, opts...), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q (only \"synthetic\" is built in)", cfg.Name)
	}
}
