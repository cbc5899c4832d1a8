package scenario

import (
	"context"
	"time"
)

// BatchEvent marks the start or end of one batch.
type BatchEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Batch     int       `json:"batch"`
}

// StageEvent marks entry into an evaluation stage within a batch.
type StageEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Batch     int       `json:"batch"`
	Stage     string    `json:"stage"`
}

// LifecycleHooks defines callbacks for observing the evaluation loop itself,
// independent of any meter. Nil callbacks are skipped.
type LifecycleHooks struct {
	OnBatchStart func(context.Context, *BatchEvent)
	OnStageEnter func(context.Context, *StageEvent)
	OnBatchEnd   func(context.Context, *BatchEvent)
}
