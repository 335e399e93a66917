package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/workflow"
)

// State keys written by the claim pipeline stages.
const (
	KeyDocuments         = "documents"
	KeyBillData          = "bill_data"
	KeyDischargeData     = "discharge_data"
	KeyClaimData         = "claim_data"
	KeyValidationResults = "validation_results"
	KeyClaimDecision     = "claim_decision"
)

// llmStage is one pipeline stage backed by a model call. The stage builds a
// prompt from the run input and its required prior outputs, calls the model
// once, and validates the response against the stage's canonical JSON
// schema. Output that does not validate is a stage failure; there is no
// fallback reinterpretation of malformed output.
type llmStage struct {
	key         string
	requires    []string
	model       *ai.Model
	instruction string
	schema      *jsonschema.Schema
	decode      func(raw json.RawMessage) (any, error)

	// shortCircuit, when set, lets the stage produce its canonical empty
	// result without a model call (e.g. no documents of its type exist).
	shortCircuit func(view *workflow.View) (any, bool)

	logger *slog.Logger
}

func (s *llmStage) Key() string { return s.key }

func (s *llmStage) Requires() []string { return s.requires }

func (s *llmStage) Execute(ctx context.Context, view *workflow.View) (any, error) {
	if s.shortCircuit != nil {
		if out, ok := s.shortCircuit(view); ok {
			s.logger.Debug("stage short-circuited", "stage", s.key, "run_id", view.RunID())
			return out, nil
		}
	}

	messages := []ai.Message{
		ai.SystemMessage{Content: s.instruction},
		ai.UserMessage{Content: s.buildUserContent(view)},
	}

	resp, err := s.model.Call(ctx, messages)
	if err != nil {
		return nil, &workflow.StageFailure{StageKey: s.key, Cause: fmt.Errorf("model call failed: %w", err)}
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return nil, &workflow.StageFailure{
			StageKey: s.key,
			Cause:    err,
			Raw:      json.RawMessage(mustMarshalString(resp.Content)),
		}
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &workflow.StageFailure{StageKey: s.key, Cause: fmt.Errorf("invalid JSON: %w", err), Raw: raw}
	}
	if err := s.schema.Validate(generic); err != nil {
		return nil, &workflow.StageFailure{
			StageKey: s.key,
			Cause:    fmt.Errorf("output does not match %s schema: %w", s.key, err),
			Raw:      raw,
		}
	}

	out, err := s.decode(raw)
	if err != nil {
		return nil, &workflow.StageFailure{StageKey: s.key, Cause: err, Raw: raw}
	}
	return out, nil
}

// buildUserContent renders the prompt body: the original aggregate document
// text, then the JSON output of each required prior stage. A missing prior
// output is rendered as null so the model can report degraded confidence
// rather than the stage aborting.
func (s *llmStage) buildUserContent(view *workflow.View) string {
	var b strings.Builder
	b.WriteString(view.Input())
	for _, dep := range s.requires {
		fmt.Fprintf(&b, "\n\n<%s>\n", dep)
		if v, ok := view.Get(dep); ok {
			if enc, err := json.Marshal(v); err == nil {
				b.Write(enc)
			} else {
				b.WriteString("null")
			}
		} else {
			b.WriteString("null")
		}
		fmt.Fprintf(&b, "\n</%s>", dep)
	}
	return b.String()
}

// extractJSON locates the JSON object in a model response, tolerating
// markdown code fences and prose around the payload.
func extractJSON(content string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)

	// Strip a surrounding code fence if present.
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in model response")
	}
	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("model response is not valid JSON")
	}
	return json.RawMessage(candidate), nil
}

func mustMarshalString(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return []byte(`""`)
	}
	return b
}

func decodeInto[T any](raw json.RawMessage) (any, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode stage output: %w", err)
	}
	return &out, nil
}
