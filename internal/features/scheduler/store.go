package scheduler

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrJobNotFound is returned by stores when a claimed job's payload is gone.
var ErrJobNotFound = errors.New("scheduled job not found")

// Job is one durable one-shot timer entry. Args are opaque to the scheduler;
// each action's handler defines its own payload shape.
type Job struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	RunAt  int64           `json:"run_at"` // epoch seconds
	Args   json.RawMessage `json:"args"`
}

// JobStore is the durable backend for scheduled jobs. It must survive process
// restarts and guarantee that a due job is claimed by at most one caller even
// when several schedulers poll the same store.
type JobStore interface {
	// Add persists a job. Failure propagates to the scheduling caller.
	Add(ctx context.Context, job Job) error
	// ClaimDue atomically removes and returns jobs whose RunAt is <= now.
	// A job claimed by one caller is never returned to another.
	ClaimDue(ctx context.Context, now int64, limit int) ([]Job, error)
}
