package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Observer receives stage lifecycle notifications. Implementations must be
// safe for concurrent use: fan-out members report from separate goroutines.
type Observer interface {
	StageStarted(runID, stageKey string)
	StageFinished(runID, stageKey string, elapsed time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) StageStarted(string, string)                        {}
func (noopObserver) StageFinished(string, string, time.Duration, error) {}

// element is one pipeline position: a single stage or a fan-out group.
type element struct {
	stage Stage
	group *Group
}

// Pipeline is an ordered list of stages and fan-out groups. Position N+1
// starts only after position N's outputs are merged into state. Stage
// failures are recorded and the pipeline proceeds; only a failure of the
// terminal stage fails the whole run, since without a decision there is
// nothing to report.
type Pipeline struct {
	name     string
	elements []element
	observer Observer
	logger   *slog.Logger
}

func NewPipeline(name string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{name: name, observer: noopObserver{}, logger: logger}
}

func (p *Pipeline) Name() string { return p.name }

// SetObserver attaches a stage lifecycle observer, replacing the no-op
// default.
func (p *Pipeline) SetObserver(obs Observer) {
	if obs != nil {
		p.observer = obs
	}
}

// AddStage appends a single stage and returns the pipeline for chaining.
func (p *Pipeline) AddStage(s Stage) *Pipeline {
	if s != nil {
		p.elements = append(p.elements, element{stage: s})
	}
	return p
}

// AddGroup appends a fan-out group and returns the pipeline for chaining.
func (p *Pipeline) AddGroup(g *Group) *Pipeline {
	if g != nil {
		p.elements = append(p.elements, element{group: g})
	}
	return p
}

// Keys returns the output keys of all pipeline positions in declared order.
func (p *Pipeline) Keys() []string {
	var keys []string
	for _, el := range p.elements {
		if el.group != nil {
			keys = append(keys, el.group.Keys()...)
		} else {
			keys = append(keys, el.stage.Key())
		}
	}
	return keys
}

// Validate checks the pipeline layout: the pipeline must be non-empty and
// every stage's required keys must be produced by an earlier position.
// Sequencing is the only consistency mechanism at run time, so misordered
// reads must be caught when the pipeline is built.
func (p *Pipeline) Validate() error {
	if len(p.elements) == 0 {
		return fmt.Errorf("pipeline %s has no elements", p.name)
	}
	written := make(map[string]bool)
	for i, el := range p.elements {
		var stages []Stage
		if el.group != nil {
			stages = el.group.members
		} else {
			stages = []Stage{el.stage}
		}
		for _, s := range stages {
			for _, dep := range s.Requires() {
				if !written[dep] {
					return fmt.Errorf("pipeline %s: stage %q at position %d requires key %q not produced by any earlier position", p.name, s.Key(), i, dep)
				}
			}
		}
		for _, s := range stages {
			written[s.Key()] = true
		}
	}
	return nil
}

// Run executes the pipeline over the given state. It returns an error only
// when the context is cancelled mid-flight or the terminal stage fails;
// every other stage failure is recorded in state and execution proceeds.
func (p *Pipeline) Run(ctx context.Context, state *State) error {
	if err := p.Validate(); err != nil {
		return err
	}

	last := len(p.elements) - 1
	for i, el := range p.elements {
		if err := ctx.Err(); err != nil {
			return err
		}

		if el.group != nil {
			if err := el.group.run(ctx, state, p.observer, p.logger); err != nil {
				return err
			}
			continue
		}

		st := el.stage
		p.observer.StageStarted(state.RunID(), st.Key())
		start := time.Now()
		out, err := st.Execute(ctx, state.View())
		p.observer.StageFinished(state.RunID(), st.Key(), time.Since(start), err)

		if err != nil && i == last {
			return fmt.Errorf("terminal stage %s: %w", st.Key(), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			// Cancellation, not a stage-level fault.
			return ctxErr
		}
		merge(state, st.Key(), out, err, p.logger)
	}
	return nil
}
