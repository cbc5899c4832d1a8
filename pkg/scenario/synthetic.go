package scenario

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kestrelml/gantry/pkg/hook"
	"github.com/kestrelml/gantry/pkg/instrument"
)

// Model is the synthetic random-projection classifier. Its Predict path
// carries a probe emission, the way a real model under evaluation would.
type Model struct {
	probe        *instrument.Probe
	preprocessor []float64
	predictor    [][]float64
}

// Predict multiplies the input through the model and emits the
// post-preprocessing representation on "model.x_post".
func (m *Model) Predict(ctx context.Context, x []float64) []float64 {
	xPost := make([]float64, len(x))
	for i := range x {
		xPost[i] = x[i] * m.preprocessor[i]
	}
	m.probe.Update(ctx, instrument.Values{"x_post": xPost})

	classes := len(m.predictor[0])
	logits := make([]float64, classes)
	for j := 0; j < classes; j++ {
		for i := range xPost {
			logits[j] += m.predictor[i][j] * xPost[i]
		}
	}
	return logits
}

// Synthetic is a self-contained evaluation scenario: random inputs, a
// random-projection model and a noise-step attack. Model calls are routed
// through a hook table so callers can intercept Predict without touching
// the model.
type Synthetic struct {
	hub   *instrument.Hub
	table *hook.Table

	inputDim    int
	classes     int
	batches     int
	attackSteps int
	epsilon     float64
	seed        int64

	rng           *rand.Rand
	model         *Model
	scenarioProbe *instrument.Probe
	attackProbe   *instrument.Probe
	drawn         int
}

// SyntheticOption configures the synthetic scenario.
type SyntheticOption func(*Synthetic)

// WithTable routes model calls through the given hook table.
func WithTable(t *hook.Table) SyntheticOption {
	return func(s *Synthetic) {
		if t != nil {
			s.table = t
		}
	}
}

// WithInputDim sets the input dimensionality (default 100).
func WithInputDim(n int) SyntheticOption {
	return func(s *Synthetic) { s.inputDim = n }
}

// WithClasses sets the number of output classes (default 10).
func WithClasses(n int) SyntheticOption {
	return func(s *Synthetic) { s.classes = n }
}

// WithBatches sets how many batches Next yields before ErrDone (default 10).
func WithBatches(n int) SyntheticOption {
	return func(s *Synthetic) { s.batches = n }
}

// WithAttackSteps sets the number of noise iterations per attack (default 5).
func WithAttackSteps(n int) SyntheticOption {
	return func(s *Synthetic) { s.attackSteps = n }
}

// WithEpsilon sets the per-step perturbation magnitude (default 0.1).
func WithEpsilon(eps float64) SyntheticOption {
	return func(s *Synthetic) { s.epsilon = eps }
}

// WithSeed fixes the random source for reproducible runs.
func WithSeed(seed int64) SyntheticOption {
	return func(s *Synthetic) { s.seed = seed }
}

// NewSynthetic creates a synthetic scenario emitting through hub. A nil hub
// uses the process default.
func NewSynthetic(hub *instrument.Hub, opts ...SyntheticOption) *Synthetic {
	if hub == nil {
		hub = instrument.Default()
	}
	s := &Synthetic{
		hub:         hub,
		table:       hook.DefaultTable(),
		inputDim:    100,
		classes:     10,
		batches:     10,
		attackSteps: 5,
		epsilon:     0.1,
		seed:        1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the scenario's model, the usual hook target.
// Only valid after Load.
func (s *Synthetic) Model() *Model { return s.model }

// Load builds the model and binds the scenario's probes.
func (s *Synthetic) Load(ctx context.Context) error {
	modelProbe, err := s.hub.Probe("model")
	if err != nil {
		return fmt.Errorf("synthetic scenario: %w", err)
	}
	if s.scenarioProbe, err = s.hub.Probe("scenario"); err != nil {
		return fmt.Errorf("synthetic scenario: %w", err)
	}
	if s.attackProbe, err = s.hub.Probe("attack"); err != nil {
		return fmt.Errorf("synthetic scenario: %w", err)
	}

	s.rng = rand.New(rand.NewSource(s.seed))
	model := &Model{
		probe:        modelProbe,
		preprocessor: make([]float64, s.inputDim),
		predictor:    make([][]float64, s.inputDim),
	}
	for i := 0; i < s.inputDim; i++ {
		model.preprocessor[i] = s.rng.Float64()
		model.predictor[i] = make([]float64, s.classes)
		for j := 0; j < s.classes; j++ {
			model.predictor[i][j] = s.rng.Float64()
		}
	}
	s.model = model
	s.drawn = 0
	return nil
}

// Next draws a batch and evaluates the benign input, emitting "scenario.x",
// "scenario.y" and "scenario.y_pred".
func (s *Synthetic) Next(ctx context.Context) (*Batch, error) {
	if s.model == nil {
		return nil, fmt.Errorf("synthetic scenario: Next before Load")
	}
	if s.drawn >= s.batches {
		return nil, ErrDone
	}

	b := &Batch{
		Index: s.drawn,
		X:     make([]float64, s.inputDim),
		Y:     s.rng.Intn(s.classes),
	}
	for i := range b.X {
		b.X[i] = s.rng.Float64()
	}
	s.drawn++

	s.scenarioProbe.Update(ctx, instrument.Values{"x": b.X, "y": b.Y})

	yPred, err := s.predict(ctx, b.X)
	if err != nil {
		return nil, err
	}
	s.scenarioProbe.Update(ctx, instrument.Values{"y_pred": yPred})
	return b, nil
}

// RunAttack perturbs the batch input step by step, emitting "attack.x_adv"
// each iteration, then evaluates the adversarial input under the
// "adversarial" stage, emitting "scenario.x_adv" and "scenario.y_pred_adv".
func (s *Synthetic) RunAttack(ctx context.Context, b *Batch) error {
	if s.model == nil {
		return fmt.Errorf("synthetic scenario: RunAttack before Load")
	}

	xAdv := make([]float64, len(b.X))
	copy(xAdv, b.X)
	for step := 0; step < s.attackSteps; step++ {
		for i := range xAdv {
			xAdv[i] += s.epsilon * (2*s.rng.Float64() - 1)
		}
		// Emit a snapshot; later steps keep mutating xAdv and must not
		// rewrite what earlier emissions recorded.
		s.attackProbe.Update(ctx, instrument.Values{"x_adv": append([]float64(nil), xAdv...)})
	}
	b.XAdv = xAdv

	s.hub.SetStage(StageAdversarial)
	yPredAdv, err := s.predict(ctx, xAdv)
	if err != nil {
		return err
	}
	s.scenarioProbe.Update(ctx, instrument.Values{"x_adv": xAdv, "y_pred_adv": yPredAdv})
	return nil
}

// predict routes the model call through the hook table, so installed hooks
// see every prediction regardless of which stage triggered it.
func (s *Synthetic) predict(ctx context.Context, x []float64) ([]float64, error) {
	out, err := s.table.Call(s.model, "Predict", ctx, x)
	if err != nil {
		return nil, fmt.Errorf("synthetic scenario: predict dispatch: %w", err)
	}
	logits, ok := out[0].([]float64)
	if !ok {
		return nil, fmt.Errorf("synthetic scenario: unexpected predict result %T", out[0])
	}
	return logits, nil
}
