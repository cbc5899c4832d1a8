package instrument

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureRecorder collects records in memory for assertions.
type captureRecorder struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (c *captureRecorder) Write(_ context.Context, rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *captureRecorder) all() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func TestNullRecorder(t *testing.T) {
	var r NullRecorder
	assert.NoError(t, r.Write(context.Background(), Record{Meter: "m", Value: 1}))
}

func TestMultiRecorder(t *testing.T) {
	t.Run("fans out to every sink", func(t *testing.T) {
		a, b := &captureRecorder{}, &captureRecorder{}
		multi := MultiRecorder(a, b)

		require.NoError(t, multi.Write(context.Background(), Record{Meter: "m", Batch: 3, Value: 7}))

		require.Len(t, a.all(), 1)
		require.Len(t, b.all(), 1)
		assert.Equal(t, 3, a.all()[0].Batch)
	})

	t.Run("keeps writing past a failing sink", func(t *testing.T) {
		boom := errors.New("sink down")
		bad := &captureRecorder{err: boom}
		good := &captureRecorder{}
		multi := MultiRecorder(bad, good)

		err := multi.Write(context.Background(), Record{Meter: "m", Value: 1})
		assert.ErrorIs(t, err, boom)
		assert.Len(t, good.all(), 1)
	})
}
