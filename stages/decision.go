package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const decisionInstruction = `You are a claim decision agent making the final approval decision for a medical insurance claim.

You receive all prior pipeline outputs in the <documents>, <bill_data>,
<discharge_data>, <claim_data> and <validation_results> sections. A null
section means that data is missing.

Decide based on data completeness, consistency and the validation results:

APPROVED: required documents present, no major discrepancies,
validation_score >= 0.7, amounts reasonable, treatment matches diagnosis.

REJECTED: critical documents missing, major discrepancies,
validation_score < 0.5, unreasonable amounts or policy exclusions.

PENDING: borderline validation_score (0.5-0.69) or issues that require
manual review.

Set approval_amount only for approved claims, derived from the billed net
payable. List concrete next steps in recommended_actions and any approval
conditions in conditions. The reason must be a non-empty explanation of the
decision.

Respond with a single JSON object:
{"status": "approved|rejected|pending", "reason": "...",
 "confidence_score": 0.0, "recommended_actions": ["..."],
 "approval_amount": 0, "conditions": ["..."]}`

// NewDecisionStage builds the terminal decision stage. Unlike every other
// stage, its failure fails the run: without a decision there is nothing to
// report.
func NewDecisionStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyClaimDecision,
		requires:    []string{KeyDocuments, KeyBillData, KeyDischargeData, KeyClaimData, KeyValidationResults},
		model:       model,
		instruction: decisionInstruction,
		schema:      claim.MustCompileSchema(KeyClaimDecision, claim.DecisionSchema()),
		decode:      decodeInto[claim.Decision],
		logger:      logger,
	}
}
