// Package redis pushes meter records onto a Redis list, so a separate
// consumer can collect results from a running evaluation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/kestrelml/gantry/pkg/instrument"
)

// Recorder appends JSON-encoded records to a Redis list.
type Recorder struct {
	client *backend.Client
	key    string
	ttl    time.Duration
}

// Option configures the recorder.
type Option func(*Recorder)

// WithKey sets the list key records are pushed to.
func WithKey(key string) Option {
	return func(r *Recorder) {
		r.key = key
	}
}

// WithTTL sets an expiration refreshed on every write. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		r.ttl = ttl
	}
}

// New creates a recorder with its own client.
func New(address, password string, db int, opts ...Option) *Recorder {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a recorder on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Recorder {
	r := &Recorder{
		client: client,
		key:    "gantry:records",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Write pushes the record onto the list.
func (r *Recorder) Write(ctx context.Context, rec instrument.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis recorder: encode record: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("redis recorder: push record: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis recorder: refresh ttl: %w", err)
		}
	}
	return nil
}

// Close releases the underlying client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
