package scenario

import (
	"context"
	"errors"
)

// Evaluation stages. The hub's current stage gates stage-filtered
// subscriptions like "model.x_post[adversarial]".
const (
	StageBenign      = "benign"
	StageAttack      = "attack"
	StageAdversarial = "adversarial"
)

// ErrDone is returned by Next when the scenario has no more batches.
var ErrDone = errors.New("scenario exhausted")

// Batch is one evaluation unit: an input vector, its label, and the
// adversarial input once RunAttack has produced it.
type Batch struct {
	Index int
	X     []float64
	Y     int
	XAdv  []float64
}

// Scenario is the external evaluation driver. The harness drives it batch by
// batch; everything the scenario wants measured it emits through probes.
type Scenario interface {
	// Load prepares the scenario (model, data). Called once per run.
	Load(ctx context.Context) error
	// Next draws the next batch and evaluates the model on the benign
	// input. Returns ErrDone when the scenario is exhausted.
	Next(ctx context.Context) (*Batch, error)
	// RunAttack perturbs the batch's input and evaluates the model on the
	// adversarial result.
	RunAttack(ctx context.Context, b *Batch) error
}
