package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caresight/claimflow/extract"
	"github.com/caresight/claimflow/workflow"
)

const defaultTimeout = 10 * time.Minute

// Coordinator drives one pipeline execution end to end: text extraction,
// run and state creation, pipeline execution under the overall timeout, and
// report assembly. It holds no per-run state; concurrent runs are
// independent.
type Coordinator struct {
	pipeline  *workflow.Pipeline
	extractor extract.Extractor
	timeout   time.Duration
	logger    *slog.Logger
}

func NewCoordinator(pipeline *workflow.Pipeline, extractor extract.Extractor, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		pipeline:  pipeline,
		extractor: extractor,
		timeout:   timeout,
		logger:    logger,
	}
}

// ProcessClaim processes one submitted document batch and always returns a
// well-formed report. All failures below this boundary, including panics in
// stage code, are converted into an error report.
func (c *Coordinator) ProcessClaim(ctx context.Context, files []extract.File) *Report {
	run := workflow.NewRun()
	logger := c.logger.With("run_id", run.ID)
	logger.Info("starting claim processing", "files", len(files))

	results := extract.ProcessFiles(ctx, c.extractor, files)
	input := extract.FormatInput(run.ID, results)
	state := workflow.NewState(run.ID, input)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("pipeline panic: %v", r)
			}
		}()
		done <- c.pipeline.Run(runCtx, state)
	}()

	var err error
	select {
	case <-runCtx.Done():
		// Stop waiting; in-flight stage calls are abandoned and unwind via
		// the cancelled context.
		err = runCtx.Err()
	case err = <-done:
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			run.TimeOut()
			logger.Error("workflow timeout", "timeout", c.timeout)
			return errorReport(run, fmt.Sprintf("workflow timeout after %s", c.timeout))
		}
		run.Fail()
		logger.Error("claim processing failed", "error", err)
		return errorReport(run, err.Error())
	}

	run.Complete()
	logger.Info("claim processing completed", "duration", run.Duration, "outputs", state.Keys())
	return assembleReport(run, state)
}

// Timeout returns the overall wall-clock limit for one run.
func (c *Coordinator) Timeout() time.Duration { return c.timeout }
