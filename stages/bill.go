package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const billInstruction = `You are a bill processing agent for medical insurance claims.

The classified documents are provided in the <documents> section. Process
ONLY documents of type "bill". Never process discharge summaries,
prescriptions, lab reports or any other document type.

For each bill, extract: hospital name, patient name, bill number, bill date
(YYYY-MM-DD), itemized line items with amounts, total amount, tax, discount
and net payable. Amounts are plain numbers without currency symbols.
Distinguish medications from procedures; a bill line item is a charge, not a
clinical event.

Respond with a single JSON object:
{"processed_bills": [{"document_type": "bill", "hospital_name": "...",
  "patient_name": "...", "bill_number": "...", "bill_date": "...",
  "line_items": [{"description": "...", "quantity": 1, "amount": 0}],
  "total_amount": 0, "tax_amount": 0, "discount": 0, "net_payable": 0,
  "content": "..."}],
 "total_bills_processed": 0}

If there are no bill documents, respond with
{"processed_bills": [], "total_bills_processed": 0}.`

// NewBillStage builds the bill extraction stage, a member of the parallel
// document-processing group.
func NewBillStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyBillData,
		requires:    []string{KeyDocuments},
		model:       model,
		instruction: billInstruction,
		schema:      claim.MustCompileSchema(KeyBillData, claim.BillSchema()),
		decode:      decodeInto[claim.BillResult],
		shortCircuit: func(view *workflow.View) (any, bool) {
			if noDocumentsOfType(view, claim.TypeBill) {
				return &claim.BillResult{ProcessedBills: []claim.BillData{}}, true
			}
			return nil, false
		},
		logger: logger,
	}
}

// noDocumentsOfType reports whether classification succeeded and produced no
// documents of the given type, in which case an extract stage can emit its
// canonical empty result without a model call.
func noDocumentsOfType(view *workflow.View, types ...claim.DocumentType) bool {
	classification, ok := workflow.ViewGet[claim.Classification](view, KeyDocuments)
	if !ok {
		return false
	}
	for _, t := range types {
		if len(classification.OfType(t)) > 0 {
			return false
		}
	}
	return true
}
