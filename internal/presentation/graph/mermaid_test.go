package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelml/gantry/pkg/instrument"
)

func wiredHub(t *testing.T) *instrument.Hub {
	t.Helper()
	hub := instrument.NewHub()

	accuracy, err := instrument.NewMeter("accuracy", instrument.Identity, "scenario.y_pred")
	require.NoError(t, err)
	require.NoError(t, hub.ConnectMeter(accuracy))

	advOnly, err := instrument.NewMeter("adv-repr", instrument.Identity, "model.x_post[adversarial]")
	require.NoError(t, err)
	require.NoError(t, hub.ConnectMeter(advOnly))

	dist, err := instrument.NewJointMeter("perturbation",
		func(values []any) (any, error) { return nil, nil },
		"scenario.x", "scenario.x_adv")
	require.NoError(t, err)
	require.NoError(t, hub.ConnectMeter(dist))

	return hub
}

func TestGenerateMermaid(t *testing.T) {
	out := GenerateMermaid(wiredHub(t))

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `ns_scenario(("scenario"))`)
	assert.Contains(t, out, `ns_model(("model"))`)
	assert.Contains(t, out, `path_scenario_y_pred["scenario.y_pred"]`)
	assert.Contains(t, out, `meter_0[["accuracy"]]`)
	assert.Contains(t, out, `-. "adversarial" .->`, "stage filters render as dotted labeled arrows")

	// Namespace nodes are declared once even when several paths share them.
	assert.Equal(t, 1, strings.Count(out, `ns_scenario((`))
}

func TestGenerateMermaidEmptyHub(t *testing.T) {
	assert.Equal(t, "graph LR\n", GenerateMermaid(instrument.NewHub()))
}

func TestSummary(t *testing.T) {
	out := Summary(wiredHub(t))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "accuracy <- scenario.y_pred", lines[0])
	assert.Equal(t, "adv-repr <- model.x_post[adversarial]", lines[1])
	assert.Equal(t, "perturbation <- scenario.x, scenario.x_adv", lines[2])
}
