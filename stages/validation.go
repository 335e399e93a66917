package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const validationInstruction = `You are a validation agent for medical insurance claims.

You receive the classified documents and the outputs of the specialized
extraction stages in the <documents>, <bill_data>, <discharge_data> and
<claim_data> sections. A section containing null means that stage produced
no output; treat its data as missing and lower the validation score
accordingly.

Cross-validate the extracted data:
1. Completeness: are the expected document types present (bill, discharge
   summary, policy identification)? List missing ones in missing_documents.
2. Consistency: do patient names, dates and amounts agree across documents?
   List mismatches in discrepancies.
3. Quality: note medication/procedure misclassifications and other data
   quality problems in data_quality_issues.
4. Compliance: note in agent_compliance_issues any evidence that an
   extraction stage processed a document type it should not have.

Compute validation_score in [0,1]: 1.0 means complete, consistent data;
deduct for missing documents, discrepancies and quality issues.

Respond with a single JSON object:
{"missing_documents": ["..."], "discrepancies": ["..."],
 "validation_score": 0.0, "data_quality_issues": ["..."],
 "recommendations": ["..."], "agent_compliance_issues": ["..."]}`

// NewValidationStage builds the cross-validation stage. It runs after the
// parallel extraction group and reads every extraction output.
func NewValidationStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyValidationResults,
		requires:    []string{KeyDocuments, KeyBillData, KeyDischargeData, KeyClaimData},
		model:       model,
		instruction: validationInstruction,
		schema:      claim.MustCompileSchema(KeyValidationResults, claim.ValidationSchema()),
		decode:      decodeInto[claim.ValidationResult],
		logger:      logger,
	}
}
