package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Group is a parallel fan-out over a set of stages. All members execute
// concurrently against the same view frozen at group entry; they write
// disjoint keys, so merge order is irrelevant. A failing member never
// cancels its siblings.
type Group struct {
	name    string
	members []Stage
}

// NewGroup builds a fan-out group. Duplicate member output keys are a
// configuration error, reported at construction time rather than at run
// time.
func NewGroup(name string, members ...Stage) (*Group, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("group %s has no members", name)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.Key()] {
			return nil, fmt.Errorf("group %s has duplicate output key %q", name, m.Key())
		}
		seen[m.Key()] = true
	}
	return &Group{name: name, members: members}, nil
}

func (g *Group) Name() string { return g.name }

// Keys returns the output keys of all members in declaration order.
func (g *Group) Keys() []string {
	keys := make([]string, len(g.members))
	for i, m := range g.members {
		keys[i] = m.Key()
	}
	return keys
}

func (g *Group) requires() []string {
	var deps []string
	for _, m := range g.members {
		deps = append(deps, m.Requires()...)
	}
	return deps
}

type memberResult struct {
	output any
	err    error
}

// run executes all members concurrently and merges their outputs once every
// member has finished. The errgroup carries the caller's context into each
// member call; member errors are recorded per key, never returned, so one
// failure cannot cancel the rest of the group.
func (g *Group) run(ctx context.Context, state *State, obs Observer, logger *slog.Logger) error {
	view := state.View()
	results := make([]memberResult, len(g.members))

	eg, memberCtx := errgroup.WithContext(ctx)
	for i, member := range g.members {
		i, member := i, member
		eg.Go(func() error {
			obs.StageStarted(state.RunID(), member.Key())
			start := time.Now()
			out, err := member.Execute(memberCtx, view)
			obs.StageFinished(state.RunID(), member.Key(), time.Since(start), err)
			results[i] = memberResult{output: out, err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// Abandoned run: nothing is merged, no partial salvage.
		return err
	}

	for i, member := range g.members {
		merge(state, member.Key(), results[i].output, results[i].err, logger)
	}
	return nil
}

// merge records one stage result into state: typed value on success, failure
// marker (plus any raw offending output) otherwise.
func merge(state *State, key string, output any, err error, logger *slog.Logger) {
	if err != nil {
		logger.Warn("stage failed", "stage", key, "error", err)
		state.RecordFailure(key, err)
		if failure, ok := err.(*StageFailure); ok {
			state.SetRaw(key, failure.Raw)
		}
		return
	}
	state.Set(key, output)
}
