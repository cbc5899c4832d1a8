package logrec

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelml/gantry/pkg/instrument"
)

func TestRecorderWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("record fields appear in the log line", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRecorder(slog.New(slog.NewJSONHandler(&buf, nil)))

		require.NoError(t, r.Write(ctx, instrument.Record{Meter: "accuracy", Batch: 2, Value: 0.5}))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "meter record", line["msg"])
		assert.Equal(t, "accuracy", line["meter"])
		assert.Equal(t, 2.0, line["batch"])
		assert.Equal(t, 0.5, line["value"])
	})

	t.Run("level option is honored", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		r := NewRecorder(logger, WithLevel(slog.LevelDebug))

		require.NoError(t, r.Write(ctx, instrument.Record{Meter: "m", Value: 1}))
		assert.Empty(t, buf.Bytes(), "debug records dropped by an info handler")
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		assert.NotPanics(t, func() {
			r := NewRecorder(nil)
			_ = r.Write(ctx, instrument.Record{Meter: "m", Value: 1})
		})
	})
}
