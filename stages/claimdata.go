package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const claimDataInstruction = `You are a claim data processing agent for medical insurance claims.

The classified documents are provided in the <documents> section. Process
ONLY documents of type "id_card" and "correspondence". Never process bills,
discharge summaries or any other document type.

For each matching document, extract policy and member information: patient
name, policy number, member ID, insurance company, policy type, validity
dates (YYYY-MM-DD) and any claim reference number.

Respond with a single JSON object:
{"processed_claim_documents": [{"document_type": "id_card",
  "patient_name": "...", "policy_number": "...", "member_id": "...",
  "insurance_company": "...", "policy_type": "...", "valid_from": "...",
  "valid_to": "...", "claim_number": "...", "content": "..."}],
 "total_documents_processed": 0}

If there are no matching documents, respond with
{"processed_claim_documents": [], "total_documents_processed": 0}.`

// NewClaimDataStage builds the policy/member data extraction stage, a member
// of the parallel document-processing group.
func NewClaimDataStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyClaimData,
		requires:    []string{KeyDocuments},
		model:       model,
		instruction: claimDataInstruction,
		schema:      claim.MustCompileSchema(KeyClaimData, claim.ClaimDataSchema()),
		decode:      decodeInto[claim.ClaimDataResult],
		shortCircuit: func(view *workflow.View) (any, bool) {
			if noDocumentsOfType(view, claim.TypeIDCard, claim.TypeCorrespondence) {
				return &claim.ClaimDataResult{ProcessedClaimDocuments: []claim.ClaimData{}}, true
			}
			return nil, false
		},
		logger: logger,
	}
}
