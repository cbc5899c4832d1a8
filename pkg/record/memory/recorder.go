// Package memory provides an in-memory recorder, the default sink for tests
// and for end-of-run result collation.
package memory

import (
	"context"
	"sync"

	"github.com/kestrelml/gantry/pkg/instrument"
)

// Recorder accumulates records in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	records []instrument.Record
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Write appends the record.
func (r *Recorder) Write(ctx context.Context, rec instrument.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far, in write order.
func (r *Recorder) Records() []instrument.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]instrument.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Collate groups recorded values by meter name, preserving write order
// within each meter.
func (r *Recorder) Collate() map[string][]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]any)
	for _, rec := range r.records {
		out[rec.Meter] = append(out[rec.Meter], rec.Value)
	}
	return out
}

// Len returns the number of records held.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Reset discards all records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
