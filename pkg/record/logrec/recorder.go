// Package logrec provides a recorder that writes each meter record to a
// structured logger.
package logrec

import (
	"context"
	"log/slog"

	"github.com/kestrelml/gantry/pkg/instrument"
)

// Recorder logs every record at the configured level.
type Recorder struct {
	logger *slog.Logger
	level  slog.Level
}

// Option configures the recorder.
type Option func(*Recorder)

// WithLevel sets the log level records are emitted at (default Info).
func WithLevel(level slog.Level) Option {
	return func(r *Recorder) {
		r.level = level
	}
}

// NewRecorder creates a recorder writing to logger. A nil logger uses the
// process default.
func NewRecorder(logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{logger: logger, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Write logs the record.
func (r *Recorder) Write(ctx context.Context, rec instrument.Record) error {
	r.logger.Log(ctx, r.level, "meter record",
		"meter", rec.Meter,
		"batch", rec.Batch,
		"value", rec.Value,
	)
	return nil
}
