package stages

import (
	"fmt"
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/workflow"
)

// DefaultPipeline assembles the canonical claim-processing layout:
//
//	classify -> parallel(bill, discharge, claim_data) -> validate -> decide
//
// The element list is data: callers needing a variant (e.g. without the
// claim-data stage) can assemble their own pipeline from the stage
// constructors.
func DefaultPipeline(model *ai.Model, logger *slog.Logger) (*workflow.Pipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("pipeline requires a model")
	}
	if logger == nil {
		logger = slog.Default()
	}

	group, err := workflow.NewGroup("document_processing",
		NewBillStage(model, logger),
		NewDischargeStage(model, logger),
		NewClaimDataStage(model, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build document processing group: %w", err)
	}

	p := workflow.NewPipeline("claim_processor", logger).
		AddStage(NewClassifyStage(model, logger)).
		AddGroup(group).
		AddStage(NewValidationStage(model, logger)).
		AddStage(NewDecisionStage(model, logger))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
