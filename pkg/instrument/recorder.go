package instrument

import (
	"context"
	"errors"
)

// Record is one measured result, as produced by a meter.
type Record struct {
	Meter string `json:"meter"`
	Batch int    `json:"batch"`
	Value any    `json:"value"`
}

// Recorder is the sink a meter forwards its results to. Implementations live
// in pkg/record (in-memory collation, structured log, Prometheus, Redis).
type Recorder interface {
	Write(ctx context.Context, rec Record) error
}

// NullRecorder discards every record. It is the default sink so a meter can
// be connected before its recording backend is decided.
type NullRecorder struct{}

func (NullRecorder) Write(ctx context.Context, rec Record) error { return nil }

// MultiRecorder fans every record out to all given sinks. Each sink is
// attempted even when an earlier one fails; the errors are joined.
func MultiRecorder(recorders ...Recorder) Recorder {
	return multiRecorder(recorders)
}

type multiRecorder []Recorder

func (m multiRecorder) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, r := range m {
		if err := r.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
