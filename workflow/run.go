package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one run. Transitions are strictly
// one-way: running -> completed | timed_out | failed.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusFailed    Status = "failed"
)

// Run identifies one end-to-end processing of a submitted document batch.
// Its ID is the correlation key for state, logs, traces and the final
// report.
type Run struct {
	ID        string
	Status    Status
	StartedAt time.Time
	Duration  time.Duration
}

func NewRun() *Run {
	return &Run{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
}

func (r *Run) finish(status Status) {
	if r.Status != StatusRunning {
		return
	}
	r.Status = status
	r.Duration = time.Since(r.StartedAt)
}

func (r *Run) Complete() { r.finish(StatusCompleted) }

func (r *Run) TimeOut() { r.finish(StatusTimedOut) }

func (r *Run) Fail() { r.finish(StatusFailed) }
