// Package runtime drives the evaluation loop: batches, stages and lifecycle
// events. It owns no measurement logic; everything observable flows through
// the instrument hub the scenario emits into.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelml/gantry/internal/logging"
	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/scenario"
)

// Engine runs one evaluation: for every batch the scenario yields, it
// advances the hub's batch counter, walks the benign/attack stages and fires
// lifecycle hooks. All dispatch is synchronous; when Run returns, every
// record for the run has been written.
type Engine struct {
	scenario   scenario.Scenario
	hub        *instrument.Hub
	hooks      scenario.LifecycleHooks
	logger     *slog.Logger
	maxBatches int
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithHub sets the hub whose batch and stage state the loop advances.
// Defaults to the process-wide hub.
func WithHub(hub *instrument.Hub) EngineOption {
	return func(e *Engine) {
		if hub != nil {
			e.hub = hub
		}
	}
}

// WithLifecycleHooks registers loop observability callbacks.
func WithLifecycleHooks(hooks scenario.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxBatches caps the number of batches even if the scenario has more.
// Zero means run until the scenario is exhausted.
func WithMaxBatches(n int) EngineOption {
	return func(e *Engine) {
		e.maxBatches = n
	}
}

// NewEngine creates an engine for the given scenario.
func NewEngine(sc scenario.Scenario, opts ...EngineOption) *Engine {
	e := &Engine{
		scenario: sc,
		hub:      instrument.Default(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the evaluation until the scenario is exhausted, the batch cap
// is reached, or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.scenario == nil {
		return fmt.Errorf("no scenario configured")
	}
	if err := e.scenario.Load(ctx); err != nil {
		return fmt.Errorf("scenario load: %w", err)
	}
	e.logger.Info("evaluation started")

	batches := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.maxBatches > 0 && batches >= e.maxBatches {
			break
		}

		e.hub.SetBatch(batches)
		e.fireBatch(ctx, e.hooks.OnBatchStart, batches)

		e.enterStage(ctx, batches, scenario.StageBenign)
		b, err := e.scenario.Next(ctx)
		if errors.Is(err, scenario.ErrDone) {
			break
		}
		if err != nil {
			return fmt.Errorf("batch %d: %w", batches, err)
		}

		e.enterStage(ctx, batches, scenario.StageAttack)
		if err := e.scenario.RunAttack(ctx, b); err != nil {
			return fmt.Errorf("batch %d: attack: %w", batches, err)
		}

		e.fireBatch(ctx, e.hooks.OnBatchEnd, batches)
		e.logger.Debug("batch complete", "batch", batches)
		batches++
	}

	e.hub.SetStage("")
	e.logger.Info("evaluation finished", "batches", batches)
	return nil
}

func (e *Engine) enterStage(ctx context.Context, batch int, stage string) {
	e.hub.SetStage(stage)
	if e.hooks.OnStageEnter != nil {
		e.hooks.OnStageEnter(ctx, &scenario.StageEvent{
			Timestamp: time.Now(),
			Batch:     batch,
			Stage:     stage,
		})
	}
}

func (e *Engine) fireBatch(ctx context.Context, fn func(context.Context, *scenario.BatchEvent), batch int) {
	if fn != nil {
		fn(ctx, &scenario.BatchEvent{Timestamp: time.Now(), Batch: batch})
	}
}
