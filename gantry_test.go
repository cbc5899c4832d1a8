package gantry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelml/gantry"
	"github.com/kestrelml/gantry/pkg/hook"
	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/metrics"
	"github.com/kestrelml/gantry/pkg/record/memory"
	"github.com/kestrelml/gantry/pkg/scenario"
)

func newScenario(hub *instrument.Hub) *scenario.Synthetic {
	return scenario.NewSynthetic(hub,
		scenario.WithTable(hook.NewTable()),
		scenario.WithInputDim(8),
		scenario.WithClasses(3),
		scenario.WithBatches(2),
		scenario.WithAttackSteps(2),
		scenario.WithSeed(7),
	)
}

func TestHarnessRun(t *testing.T) {
	hub := instrument.NewHub()
	results := memory.NewRecorder()

	accuracy, err := instrument.NewJointMeter("benign-accuracy",
		metrics.CategoricalAccuracy, "scenario.y", "scenario.y_pred")
	require.NoError(t, err)
	perturbation, err := instrument.NewJointMeter("perturbation",
		metrics.L2, "scenario.x", "scenario.x_adv")
	require.NoError(t, err)

	h, err := gantry.New(newScenario(hub),
		gantry.WithHub(hub),
		gantry.WithMeters(accuracy, perturbation),
		gantry.WithRecorder(results),
	)
	require.NoError(t, err)
	assert.Same(t, hub, h.Hub())

	require.NoError(t, h.Run(context.Background()))

	byMeter := results.Collate()
	require.Len(t, byMeter["benign-accuracy"], 2)
	require.Len(t, byMeter["perturbation"], 2)
	for _, v := range byMeter["benign-accuracy"] {
		assert.Contains(t, []any{0.0, 1.0}, v)
	}
	for _, v := range byMeter["perturbation"] {
		assert.Greater(t, v.(float64), 0.0)
	}
}

func TestHarnessWithRecorderWiresEveryMeter(t *testing.T) {
	hub := instrument.NewHub()
	shared := memory.NewRecorder()

	m, err := instrument.NewMeter("y-pred", instrument.Identity, "scenario.y_pred")
	require.NoError(t, err)

	h, err := gantry.New(newScenario(hub),
		gantry.WithHub(hub),
		gantry.WithMeters(m),
		gantry.WithRecorder(shared),
		gantry.WithMaxBatches(1),
	)
	require.NoError(t, err)
	require.NoError(t, h.Run(context.Background()))

	assert.Equal(t, 1, shared.Len())
}

func TestHarnessLifecycleHooks(t *testing.T) {
	hub := instrument.NewHub()

	starts, ends := 0, 0
	h, err := gantry.New(newScenario(hub),
		gantry.WithHub(hub),
		gantry.WithLifecycleHooks(scenario.LifecycleHooks{
			OnBatchStart: func(context.Context, *scenario.BatchEvent) { starts++ },
			OnBatchEnd:   func(context.Context, *scenario.BatchEvent) { ends++ },
		}),
	)
	require.NoError(t, err)
	require.NoError(t, h.Run(context.Background()))

	assert.Equal(t, 2, ends, "one completed batch event per batch")
	assert.Equal(t, 3, starts, "the final start discovers the scenario is done")
}

func TestNewRequiresScenario(t *testing.T) {
	_, err := gantry.New(nil)
	assert.Error(t, err)
}

func TestProcessWideFacades(t *testing.T) {
	gantry.ResetHub()
	t.Cleanup(gantry.ResetHub)

	t.Run("probe identity across facade calls", func(t *testing.T) {
		a, err := gantry.GetProbe("model")
		require.NoError(t, err)
		assert.Same(t, a, gantry.MustProbe("model"))
	})

	t.Run("invalid namespace", func(t *testing.T) {
		_, err := gantry.GetProbe("not a namespace")
		assert.ErrorIs(t, err, instrument.ErrInvalidNamespace)
		assert.Panics(t, func() { gantry.MustProbe("not a namespace") })
	})

	t.Run("connect routes through the default hub", func(t *testing.T) {
		rec := memory.NewRecorder()
		m, err := instrument.NewMeter("facade", instrument.Identity, "test.x",
			instrument.WithRecorder(rec))
		require.NoError(t, err)
		require.NoError(t, gantry.Connect(m))

		gantry.MustProbe("test").Update(context.Background(), instrument.Values{"x": 5})
		require.Equal(t, 1, rec.Len())
		assert.Equal(t, 5, rec.Records()[0].Value)
	})

	t.Run("reset discards probes and meters", func(t *testing.T) {
		before := gantry.GetHub()
		gantry.ResetHub()
		assert.NotSame(t, before, gantry.GetHub())
		assert.Empty(t, gantry.GetHub().Subscribers())
	})
}
