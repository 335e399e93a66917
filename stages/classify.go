package stages

import (
	"log/slog"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/workflow"
)

const classifyInstruction = `You are a document classification and separation agent for medical insurance documents.

You receive pre-extracted text content from multiple PDF files. Your task:

1. ANALYZE all the extracted text content.
2. SEPARATE different document types that might be mixed together.
3. CLASSIFY each document into one of these categories:
   - "bill": medical bills, invoices, statements with charges and amounts
   - "discharge_summary": hospital discharge or treatment summaries with admission/discharge info
   - "id_card": insurance ID cards, membership cards with policy details
   - "correspondence": letters, emails, claim correspondence
   - "prescription": prescription documents, medication lists from doctors
   - "lab_report": laboratory reports, test results with values
   - "other": documents that fit none of the above
4. PRESERVE key information in the content field: patient names and IDs,
   policy numbers, amounts, dates, doctor and hospital names, medications,
   procedures, diagnoses and reference numbers. Do not truncate critical
   details. If unsure about a classification, use "other".

A document rendered as "[Error: ...]" failed text extraction; classify it as
"other" with the error marker as its content so the document count is
preserved.

Respond with a single JSON object:
{"documents": [{"type": "...", "content": "...", "filename": "...", "confidence": 0.0}],
 "summary": {"total_documents": 0, "document_types_found": ["..."]}}`

// NewClassifyStage builds the document classification stage. It is the first
// pipeline position and reads only the aggregate input text.
func NewClassifyStage(model *ai.Model, logger *slog.Logger) workflow.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &llmStage{
		key:         KeyDocuments,
		model:       model,
		instruction: classifyInstruction,
		schema:      claim.MustCompileSchema(KeyDocuments, claim.ClassificationSchema()),
		decode:      decodeInto[claim.Classification],
		logger:      logger,
	}
}
