package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietHub() *Hub {
	return NewHub(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newTestMeter(t *testing.T, name, path string) (*Meter, *captureRecorder) {
	t.Helper()
	rec := &captureRecorder{}
	m, err := NewMeter(name, Identity, path, WithRecorder(rec))
	require.NoError(t, err)
	return m, rec
}

func TestHubProbe(t *testing.T) {
	hub := quietHub()

	t.Run("same namespace, same probe", func(t *testing.T) {
		a, err := hub.Probe("model")
		require.NoError(t, err)
		b, err := hub.Probe("model")
		require.NoError(t, err)
		assert.Same(t, a, b)
		assert.Equal(t, "model", a.Namespace())
	})

	t.Run("invalid namespace", func(t *testing.T) {
		for _, bad := range []string{"", "a.b", "3model", "a b"} {
			_, err := hub.Probe(bad)
			assert.ErrorIs(t, err, ErrInvalidNamespace, bad)
		}
	})
}

func TestHubRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("identity meter records emitted value", func(t *testing.T) {
		hub := quietHub()
		m, rec := newTestMeter(t, "watch-x", "test.x")
		require.NoError(t, hub.ConnectMeter(m))

		probe, err := hub.Probe("test")
		require.NoError(t, err)
		probe.Update(ctx, Values{"x": 5})

		records := rec.all()
		require.Len(t, records, 1)
		assert.Equal(t, 5, records[0].Value)
		assert.Equal(t, "watch-x", records[0].Meter)
	})

	t.Run("exact path match only", func(t *testing.T) {
		hub := quietHub()
		m, rec := newTestMeter(t, "watch-x", "model.x")
		require.NoError(t, hub.ConnectMeter(m))

		model, err := hub.Probe("model")
		require.NoError(t, err)
		other, err := hub.Probe("attack")
		require.NoError(t, err)

		model.Update(ctx, Values{"y": 1})  // same namespace, other variable
		other.Update(ctx, Values{"x": 2})  // other namespace, same variable
		model.Update(ctx, Values{"x": 3})  // exact match

		records := rec.all()
		require.Len(t, records, 1)
		assert.Equal(t, 3, records[0].Value)
	})

	t.Run("no subscribers is a no-op", func(t *testing.T) {
		hub := quietHub()
		probe, err := hub.Probe("lonely")
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			probe.Update(ctx, Values{"x": 1, "y": 2})
		})
	})

	t.Run("dispatch follows connection order", func(t *testing.T) {
		hub := quietHub()
		var order []string
		first := &funcSubscriber{
			name:  "first",
			paths: []ArgumentPath{MustParseArgumentPath("test.x")},
			fn: func(context.Context, ArgumentPath, any, int) error {
				order = append(order, "first")
				return nil
			},
		}
		second := &funcSubscriber{
			name:  "second",
			paths: []ArgumentPath{MustParseArgumentPath("test.x")},
			fn: func(context.Context, ArgumentPath, any, int) error {
				order = append(order, "second")
				return nil
			},
		}
		require.NoError(t, hub.ConnectMeter(first))
		require.NoError(t, hub.ConnectMeter(second))

		probe, err := hub.Probe("test")
		require.NoError(t, err)
		probe.Update(ctx, Values{"x": 1})

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("batch index is stamped onto records", func(t *testing.T) {
		hub := quietHub()
		m, rec := newTestMeter(t, "m", "test.x")
		require.NoError(t, hub.ConnectMeter(m))
		probe, err := hub.Probe("test")
		require.NoError(t, err)

		hub.SetBatch(4)
		probe.Update(ctx, Values{"x": 1})
		hub.NextBatch()
		probe.Update(ctx, Values{"x": 2})

		records := rec.all()
		require.Len(t, records, 2)
		assert.Equal(t, 4, records[0].Batch)
		assert.Equal(t, 5, records[1].Batch)
	})
}

func TestHubConnectMeter(t *testing.T) {
	ctx := context.Background()

	t.Run("reconnecting is idempotent", func(t *testing.T) {
		hub := quietHub()
		m, rec := newTestMeter(t, "m", "test.x")
		require.NoError(t, hub.ConnectMeter(m))
		require.NoError(t, hub.ConnectMeter(m))

		probe, err := hub.Probe("test")
		require.NoError(t, err)
		probe.Update(ctx, Values{"x": 1})

		assert.Len(t, rec.all(), 1)
		assert.Len(t, hub.Subscribers(), 1)
	})

	t.Run("nil subscriber is rejected", func(t *testing.T) {
		hub := quietHub()
		assert.Error(t, hub.ConnectMeter(nil))
	})

	t.Run("disconnect stops delivery", func(t *testing.T) {
		hub := quietHub()
		m, rec := newTestMeter(t, "m", "test.x")
		require.NoError(t, hub.ConnectMeter(m))
		probe, err := hub.Probe("test")
		require.NoError(t, err)

		probe.Update(ctx, Values{"x": 1})
		hub.DisconnectMeter(m)
		probe.Update(ctx, Values{"x": 2})

		assert.Len(t, rec.all(), 1)
		assert.Empty(t, hub.Subscribers())
	})

	t.Run("disconnecting an unknown meter is a no-op", func(t *testing.T) {
		hub := quietHub()
		m, _ := newTestMeter(t, "m", "test.x")
		assert.NotPanics(t, func() { hub.DisconnectMeter(m) })
	})
}

func TestHubFailureIsolation(t *testing.T) {
	ctx := context.Background()

	t.Run("failing meter does not block siblings", func(t *testing.T) {
		hub := quietHub()
		failing := &funcSubscriber{
			name:  "failing",
			paths: []ArgumentPath{MustParseArgumentPath("test.x")},
			fn: func(context.Context, ArgumentPath, any, int) error {
				return errors.New("metric blew up")
			},
		}
		healthy, rec := newTestMeter(t, "healthy", "test.x")
		require.NoError(t, hub.ConnectMeter(failing))
		require.NoError(t, hub.ConnectMeter(healthy))

		probe, err := hub.Probe("test")
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			probe.Update(ctx, Values{"x": 1})
		})
		assert.Len(t, rec.all(), 1)
	})

	t.Run("panicking meter is contained", func(t *testing.T) {
		hub := quietHub()
		panicking := &funcSubscriber{
			name:  "panicking",
			paths: []ArgumentPath{MustParseArgumentPath("test.x")},
			fn: func(context.Context, ArgumentPath, any, int) error {
				panic("unexpected shape")
			},
		}
		healthy, rec := newTestMeter(t, "healthy", "test.x")
		require.NoError(t, hub.ConnectMeter(panicking))
		require.NoError(t, hub.ConnectMeter(healthy))

		probe, err := hub.Probe("test")
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			probe.Update(ctx, Values{"x": 1})
		})
		assert.Len(t, rec.all(), 1)
	})
}

func TestHubStageFilter(t *testing.T) {
	ctx := context.Background()
	hub := quietHub()

	always, alwaysRec := newTestMeter(t, "always", "model.x_post")
	filtered, filteredRec := newTestMeter(t, "adv-only", "model.x_post[adversarial]")
	require.NoError(t, hub.ConnectMeter(always))
	require.NoError(t, hub.ConnectMeter(filtered))

	probe, err := hub.Probe("model")
	require.NoError(t, err)

	hub.SetStage("benign")
	probe.Update(ctx, Values{"x_post": 1})
	hub.SetStage("adversarial")
	probe.Update(ctx, Values{"x_post": 2})

	assert.Len(t, alwaysRec.all(), 2)

	records := filteredRec.all()
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Value)
}

func TestHubIsMeasuring(t *testing.T) {
	hub := quietHub()
	m, _ := newTestMeter(t, "adv-only", "model.x[adversarial]")
	require.NoError(t, hub.ConnectMeter(m))

	path := MustParseArgumentPath("model.x")
	assert.False(t, hub.IsMeasuring(path), "stage filter not active yet")

	hub.SetStage("adversarial")
	assert.True(t, hub.IsMeasuring(path))

	hub.SetStage("benign")
	assert.False(t, hub.IsMeasuring(path))
}

func TestHubConcurrentDispatch(t *testing.T) {
	hub := quietHub()
	m, rec := newTestMeter(t, "m", "test.x")
	require.NoError(t, hub.ConnectMeter(m))
	probe, err := hub.Probe("test")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			probe.Update(context.Background(), Values{"x": i})
		}(i)
	}
	// Connecting while dispatches are in flight must be safe.
	extra, _ := newTestMeter(t, "extra", "test.y")
	require.NoError(t, hub.ConnectMeter(extra))
	wg.Wait()

	assert.Len(t, rec.all(), n)
}

func TestDefaultHub(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	a := Default()
	assert.Same(t, a, Default())

	_, err := a.Probe("shared")
	require.NoError(t, err)

	ResetDefault()
	b := Default()
	assert.NotSame(t, a, b)
}

// funcSubscriber adapts a closure to the Subscriber interface for tests.
type funcSubscriber struct {
	name  string
	paths []ArgumentPath
	fn    func(ctx context.Context, path ArgumentPath, value any, batch int) error
}

func (f *funcSubscriber) Name() string          { return f.name }
func (f *funcSubscriber) Paths() []ArgumentPath { return f.paths }
func (f *funcSubscriber) Observe(ctx context.Context, path ArgumentPath, value any, batch int) error {
	return f.fn(ctx, path, value, batch)
}
