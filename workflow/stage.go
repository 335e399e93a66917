package workflow

import (
	"context"
	"encoding/json"
	"fmt"
)

// Stage is one named, idempotent unit of pipeline work. It consumes a
// read-only view of the run state and produces a single value stored under
// its declared key. A stage must not mutate any other key.
//
// Returning an empty payload (e.g. "no documents of this type found") is a
// success, not a failure. A stage fails only when it cannot produce its
// declared output schema at all.
type Stage interface {
	// Key is the unique name under which the stage output is stored.
	Key() string
	// Requires lists state keys this stage reads. They must be produced by
	// an earlier pipeline position; this is checked at build time.
	Requires() []string
	Execute(ctx context.Context, view *View) (any, error)
}

// StageFailure reports that a stage could not produce its declared output.
// Raw optionally carries the offending stage output so it can still be
// surfaced in the raw state for debugging.
type StageFailure struct {
	StageKey string
	Cause    error
	Raw      json.RawMessage
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", f.StageKey, f.Cause)
}

func (f *StageFailure) Unwrap() error {
	return f.Cause
}

// StageFunc adapts a function into a Stage with no required keys.
type StageFunc struct {
	Name string
	Deps []string
	Fn   func(ctx context.Context, view *View) (any, error)
}

func (s StageFunc) Key() string { return s.Name }

func (s StageFunc) Requires() []string { return s.Deps }

func (s StageFunc) Execute(ctx context.Context, view *View) (any, error) {
	return s.Fn(ctx, view)
}
