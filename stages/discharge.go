package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const dischargeInstruction = `You are a discharge summary processing agent for medical insurance claims.

The classified documents are provided in the <documents> section. Process
ONLY documents of type "discharge_summary". Never process bills, ID cards or
any other document type.

For each discharge summary, extract: patient name, admission and discharge
dates (YYYY-MM-DD), primary and secondary diagnoses, procedures performed
(surgeries, treatments, therapies - NOT medications), attending doctor,
hospital and department, length of stay in days, discharge instructions,
medications prescribed at discharge (drugs, pills, injections - NOT
procedures), follow-up instructions, patient condition and complications.
Keep medications and procedures strictly separate.

Respond with a single JSON object:
{"processed_discharge_summaries": [{"document_type": "discharge_summary",
  "patient_name": "...", "admission_date": "...", "discharge_date": "...",
  "primary_diagnosis": "...", "secondary_diagnosis": ["..."],
  "procedures_performed": ["..."], "doctor_name": "...",
  "hospital_name": "...", "department": "...", "length_of_stay": 0,
  "discharge_instructions": "...", "medications_prescribed": ["..."],
  "follow_up_instructions": "...", "patient_condition": "...",
  "complications": ["..."], "content": "..."}],
 "total_summaries_processed": 0}

If there are no discharge summaries, respond with
{"processed_discharge_summaries": [], "total_summaries_processed": 0}.`

// NewDischargeStage builds the discharge summary extraction stage, a member
// of the parallel document-processing group.
func NewDischargeStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyDischargeData,
		requires:    []string{KeyDocuments},
		model:       model,
		instruction: dischargeInstruction,
		schema:      claim.MustCompileSchema(KeyDischargeData, claim.DischargeSchema()),
		decode:      decodeInto[claim.DischargeResult],
		shortCircuit: func(view *workflow.View) (any, bool) {
			if noDocumentsOfType(view, claim.TypeDischargeSummary) {
				return &claim.DischargeResult{ProcessedDischargeSummaries: []claim.DischargeData{}}, true
			}
			return nil, false
		},
		logger: logger,
	}
}
