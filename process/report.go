package process

import (
	"encoding/json"
	"time"

	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/stages"
	"github.com/caresight/claimflow/workflow"
)

// Workflow status values exposed in the final report.
const (
	WorkflowCompleted = "completed"
	WorkflowNoOutputs = "no_outputs"
	WorkflowError     = "error"
)

// AgentOutputs is the curated, typed view of the six declared stage keys.
// Every field is nullable: a stage that failed or never ran leaves its key
// null, never an error.
type AgentOutputs struct {
	Documents         *claim.Classification   `json:"documents"`
	BillData          *claim.BillResult       `json:"bill_data"`
	DischargeData     *claim.DischargeResult  `json:"discharge_data"`
	ClaimData         *claim.ClaimDataResult  `json:"claim_data"`
	ValidationResults *claim.ValidationResult `json:"validation_results"`
	ClaimDecision     *claim.Decision         `json:"claim_decision"`
}

// Report is the single result of one run. Callers always receive a
// well-formed report, never a raw error, distinguished by WorkflowStatus.
type Report struct {
	RunID          string    `json:"run_id"`
	Duration       float64   `json:"duration"`
	Timestamp      time.Time `json:"timestamp"`
	WorkflowStatus string    `json:"workflow_status"`

	AgentOutputs *AgentOutputs `json:"agent_outputs"`

	// RawState mirrors the full final state, including output that failed
	// schema validation, for observability. It is separate from the typed
	// contract above and makes no shape guarantees.
	RawState map[string]json.RawMessage `json:"raw_state,omitempty"`

	Error              string   `json:"error,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
}

// assembleReport renders the success-path report from final state. It is
// total over arbitrary subsets of present keys: missing or wrongly-shaped
// values become null in the typed view and survive untouched in RawState.
func assembleReport(run *workflow.Run, state *workflow.State) *Report {
	outputs := &AgentOutputs{}
	outputs.Documents, _ = workflow.Get[claim.Classification](state, stages.KeyDocuments)
	outputs.BillData, _ = workflow.Get[claim.BillResult](state, stages.KeyBillData)
	outputs.DischargeData, _ = workflow.Get[claim.DischargeResult](state, stages.KeyDischargeData)
	outputs.ClaimData, _ = workflow.Get[claim.ClaimDataResult](state, stages.KeyClaimData)
	outputs.ValidationResults, _ = workflow.Get[claim.ValidationResult](state, stages.KeyValidationResults)
	outputs.ClaimDecision, _ = workflow.Get[claim.Decision](state, stages.KeyClaimDecision)

	status := WorkflowCompleted
	if len(state.Keys()) == 0 {
		status = WorkflowNoOutputs
	}

	return &Report{
		RunID:          run.ID,
		Duration:       run.Duration.Seconds(),
		Timestamp:      time.Now().UTC(),
		WorkflowStatus: status,
		AgentOutputs:   outputs,
		RawState:       state.Raw(),
	}
}

// errorReport renders the failure-path report. No partial state is
// inspected; agent outputs are null. The recommended action distinguishes a
// timeout (retryable later, contact support) from a structural failure.
func errorReport(run *workflow.Run, errMsg string) *Report {
	action := "Retry processing"
	if run.Status == workflow.StatusTimedOut {
		action = "Contact support"
	}
	return &Report{
		RunID:              run.ID,
		Duration:           run.Duration.Seconds(),
		Timestamp:          time.Now().UTC(),
		WorkflowStatus:     WorkflowError,
		AgentOutputs:       nil,
		Error:              errMsg,
		RecommendedActions: []string{action},
	}
}
