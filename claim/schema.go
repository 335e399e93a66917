package claim

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Each stage has exactly one canonical output schema (draft 2020-12 subset).
// Stage output that does not validate is a stage failure; there is no
// fallback parsing of alternative shapes.

func documentTypeEnum() []any {
	out := make([]any, len(DocumentTypes))
	for i, t := range DocumentTypes {
		out[i] = string(t)
	}
	return out
}

func confidenceProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// ClassificationSchema constrains the document classification stage output.
func ClassificationSchema() map[string]any {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":       map[string]any{"type": "string", "enum": documentTypeEnum()},
			"content":    map[string]any{"type": "string", "minLength": 1},
			"filename":   map[string]any{"type": "string"},
			"confidence": confidenceProp(),
		},
		"required": []string{"type", "content", "confidence"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documents": map[string]any{"type": "array", "items": doc},
			"summary": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total_documents":      map[string]any{"type": "integer", "minimum": 0},
					"document_types_found": stringList(),
				},
				"required": []string{"total_documents", "document_types_found"},
			},
		},
		"required": []string{"documents", "summary"},
	}
}

// BillSchema constrains the bill extraction stage output.
func BillSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number"},
			"amount":      map[string]any{"type": "number"},
		},
		"required": []string{"description", "amount"},
	}
	bill := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_type": map[string]any{"type": "string"},
			"hospital_name": map[string]any{"type": "string"},
			"patient_name":  map[string]any{"type": "string"},
			"bill_number":   map[string]any{"type": "string"},
			"bill_date":     map[string]any{"type": "string"},
			"line_items":    map[string]any{"type": "array", "items": item},
			"total_amount":  map[string]any{"type": "number"},
			"tax_amount":    map[string]any{"type": "number"},
			"discount":      map[string]any{"type": "number"},
			"net_payable":   map[string]any{"type": "number"},
			"content":       map[string]any{"type": "string"},
		},
		"required": []string{"document_type", "total_amount"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"processed_bills":       map[string]any{"type": "array", "items": bill},
			"total_bills_processed": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"processed_bills", "total_bills_processed"},
	}
}

// DischargeSchema constrains the discharge extraction stage output.
func DischargeSchema() map[string]any {
	summary := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_type":          map[string]any{"type": "string"},
			"patient_name":           map[string]any{"type": "string"},
			"admission_date":         map[string]any{"type": "string"},
			"discharge_date":         map[string]any{"type": "string"},
			"primary_diagnosis":      map[string]any{"type": "string"},
			"secondary_diagnosis":    stringList(),
			"procedures_performed":   stringList(),
			"doctor_name":            map[string]any{"type": "string"},
			"hospital_name":          map[string]any{"type": "string"},
			"department":             map[string]any{"type": "string"},
			"length_of_stay":         map[string]any{"type": "integer"},
			"discharge_instructions": map[string]any{"type": "string"},
			"medications_prescribed": stringList(),
			"follow_up_instructions": map[string]any{"type": "string"},
			"patient_condition":      map[string]any{"type": "string"},
			"complications":          stringList(),
			"content":                map[string]any{"type": "string"},
		},
		"required": []string{"document_type"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"processed_discharge_summaries": map[string]any{"type": "array", "items": summary},
			"total_summaries_processed":     map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"processed_discharge_summaries", "total_summaries_processed"},
	}
}

// ClaimDataSchema constrains the claim-data extraction stage output.
func ClaimDataSchema() map[string]any {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_type":     map[string]any{"type": "string"},
			"patient_name":      map[string]any{"type": "string"},
			"policy_number":     map[string]any{"type": "string"},
			"member_id":         map[string]any{"type": "string"},
			"insurance_company": map[string]any{"type": "string"},
			"policy_type":       map[string]any{"type": "string"},
			"valid_from":        map[string]any{"type": "string"},
			"valid_to":          map[string]any{"type": "string"},
			"claim_number":      map[string]any{"type": "string"},
			"content":           map[string]any{"type": "string"},
		},
		"required": []string{"document_type"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"processed_claim_documents": map[string]any{"type": "array", "items": doc},
			"total_documents_processed": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"processed_claim_documents", "total_documents_processed"},
	}
}

// ValidationSchema constrains the cross-validation stage output.
func ValidationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"missing_documents":       stringList(),
			"discrepancies":           stringList(),
			"validation_score":        confidenceProp(),
			"data_quality_issues":     stringList(),
			"recommendations":         stringList(),
			"agent_compliance_issues": stringList(),
		},
		"required": []string{"validation_score"},
	}
}

// DecisionSchema constrains the terminal decision stage output.
func DecisionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":              map[string]any{"type": "string", "enum": []any{"approved", "rejected", "pending"}},
			"reason":              map[string]any{"type": "string", "minLength": 1},
			"confidence_score":    confidenceProp(),
			"recommended_actions": stringList(),
			"approval_amount":     map[string]any{"type": "number"},
			"conditions":          stringList(),
		},
		"required": []string{"status", "reason", "confidence_score"},
	}
}

// CompileSchema compiles a schema map into a validator.
func CompileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s schema: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to add %s schema: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
	}
	return compiled, nil
}

// MustCompileSchema is CompileSchema for schemas defined in this package,
// which are known to compile.
func MustCompileSchema(name string, schema map[string]any) *jsonschema.Schema {
	s, err := CompileSchema(name, schema)
	if err != nil {
		panic(err)
	}
	return s
}
