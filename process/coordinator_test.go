package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/extract"
	"github.com/caresight/claimflow/stages"
	"github.com/caresight/claimflow/workflow"
)

// stubExtractor returns the file contents as extracted text; filenames
// starting with "bad" fail.
type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, f extract.File) extract.Result {
	if len(f.Filename) >= 3 && f.Filename[:3] == "bad" {
		return extract.Result{Filename: f.Filename, Status: extract.StatusFailed, Error: "unreadable"}
	}
	return extract.Result{
		Filename:       f.Filename,
		Text:           string(f.Data),
		CharacterCount: len(f.Data),
		Status:         extract.StatusSuccess,
	}
}

func outputStage(key string, value any) workflow.Stage {
	return workflow.StageFunc{Name: key, Fn: func(context.Context, *workflow.View) (any, error) {
		return value, nil
	}}
}

// fullPipeline produces all six declared keys deterministically.
func fullPipeline(t *testing.T) *workflow.Pipeline {
	t.Helper()

	group, err := workflow.NewGroup("extract",
		outputStage(stages.KeyBillData, &claim.BillResult{ProcessedBills: []claim.BillData{}, TotalBillsProcessed: 0}),
		outputStage(stages.KeyDischargeData, &claim.DischargeResult{ProcessedDischargeSummaries: []claim.DischargeData{}}),
		outputStage(stages.KeyClaimData, &claim.ClaimDataResult{ProcessedClaimDocuments: []claim.ClaimData{}}),
	)
	require.NoError(t, err)

	return workflow.NewPipeline("test", nil).
		AddStage(outputStage(stages.KeyDocuments, &claim.Classification{
			Documents: []claim.ClassifiedDocument{{Type: claim.TypeOther, Content: "x", Confidence: 0.9}},
			Summary:   claim.ClassificationSummary{TotalDocuments: 1, DocumentTypesFound: []string{"other"}},
		})).
		AddGroup(group).
		AddStage(outputStage(stages.KeyValidationResults, &claim.ValidationResult{ValidationScore: 0.8})).
		AddStage(outputStage(stages.KeyClaimDecision, &claim.Decision{
			Status:          claim.DecisionApproved,
			Reason:          "all checks passed",
			ConfidenceScore: 0.9,
		}))
}

func someFiles() []extract.File {
	return []extract.File{{Filename: "claim.pdf", Data: []byte("bill text")}}
}

func TestCoordinator_Completed(t *testing.T) {
	c := NewCoordinator(fullPipeline(t), stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	require.NotNil(t, report)
	assert.Equal(t, WorkflowCompleted, report.WorkflowStatus)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Error)

	require.NotNil(t, report.AgentOutputs)
	assert.NotNil(t, report.AgentOutputs.Documents)
	assert.NotNil(t, report.AgentOutputs.BillData)
	assert.NotNil(t, report.AgentOutputs.DischargeData)
	assert.NotNil(t, report.AgentOutputs.ClaimData)
	assert.NotNil(t, report.AgentOutputs.ValidationResults)
	require.NotNil(t, report.AgentOutputs.ClaimDecision)
	assert.True(t, report.AgentOutputs.ClaimDecision.Status.Valid())
}

func TestCoordinator_ReportHasExactlySixKeys(t *testing.T) {
	c := NewCoordinator(fullPipeline(t), stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	b, err := json.Marshal(report.AgentOutputs)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(b, &keys))
	assert.ElementsMatch(t,
		[]string{"documents", "bill_data", "discharge_data", "claim_data", "validation_results", "claim_decision"},
		mapKeys(keys))
}

func mapKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCoordinator_Timeout(t *testing.T) {
	p := workflow.NewPipeline("slow", nil).
		AddStage(workflow.StageFunc{Name: "stall", Fn: func(ctx context.Context, _ *workflow.View) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}})

	c := NewCoordinator(p, stubExtractor{}, 50*time.Millisecond, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	assert.Equal(t, WorkflowError, report.WorkflowStatus)
	assert.Contains(t, report.Error, "timeout")
	assert.Nil(t, report.AgentOutputs, "no agent outputs may be emitted on timeout")
	assert.Nil(t, report.RawState, "no partial state may be salvaged on timeout")
	require.Len(t, report.RecommendedActions, 1)
	assert.Contains(t, report.RecommendedActions[0], "Contact support")
}

func TestCoordinator_PanicRecovered(t *testing.T) {
	p := workflow.NewPipeline("panicky", nil).
		AddStage(workflow.StageFunc{Name: "boom", Fn: func(context.Context, *workflow.View) (any, error) {
			panic("stage blew up")
		}})

	c := NewCoordinator(p, stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	assert.Equal(t, WorkflowError, report.WorkflowStatus)
	assert.Contains(t, report.Error, "stage blew up")
	assert.Equal(t, []string{"Retry processing"}, report.RecommendedActions)
}

func TestCoordinator_TerminalStageFailure(t *testing.T) {
	p := workflow.NewPipeline("p", nil).
		AddStage(outputStage("a", 1)).
		AddStage(workflow.StageFunc{Name: "decision", Fn: func(context.Context, *workflow.View) (any, error) {
			return nil, errors.New("model unreachable")
		}})

	c := NewCoordinator(p, stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	assert.Equal(t, WorkflowError, report.WorkflowStatus)
	assert.Contains(t, report.Error, "model unreachable")
	assert.Equal(t, []string{"Retry processing"}, report.RecommendedActions)
}

func TestCoordinator_NonTerminalFailureStillCompletes(t *testing.T) {
	group, err := workflow.NewGroup("g",
		workflow.StageFunc{Name: stages.KeyBillData, Fn: func(context.Context, *workflow.View) (any, error) {
			return nil, errors.New("bill extraction failed")
		}},
		outputStage(stages.KeyDischargeData, &claim.DischargeResult{}),
	)
	require.NoError(t, err)

	p := workflow.NewPipeline("p", nil).
		AddGroup(group).
		AddStage(outputStage(stages.KeyClaimDecision, &claim.Decision{
			Status: claim.DecisionPending, Reason: "incomplete data", ConfidenceScore: 0.4,
		}))

	c := NewCoordinator(p, stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	assert.Equal(t, WorkflowCompleted, report.WorkflowStatus)
	assert.Nil(t, report.AgentOutputs.BillData, "failed stage key must be null")
	assert.NotNil(t, report.AgentOutputs.DischargeData)
	assert.NotNil(t, report.AgentOutputs.ClaimDecision)
}

func TestCoordinator_NoOutputs(t *testing.T) {
	// A pipeline ending in a fan-out group has no terminal stage rule; if
	// every member fails the final state is empty.
	group, err := workflow.NewGroup("g",
		workflow.StageFunc{Name: "x", Fn: func(context.Context, *workflow.View) (any, error) {
			return nil, errors.New("nope")
		}},
	)
	require.NoError(t, err)

	p := workflow.NewPipeline("p", nil).AddGroup(group)
	c := NewCoordinator(p, stubExtractor{}, time.Minute, nil)
	report := c.ProcessClaim(context.Background(), someFiles())

	assert.Equal(t, WorkflowNoOutputs, report.WorkflowStatus)
}

func TestCoordinator_FailedFileStaysInInput(t *testing.T) {
	var captured string
	p := workflow.NewPipeline("p", nil).
		AddStage(workflow.StageFunc{Name: "inspect", Fn: func(_ context.Context, view *workflow.View) (any, error) {
			captured = view.Input()
			return "ok", nil
		}})

	c := NewCoordinator(p, stubExtractor{}, time.Minute, nil)
	files := []extract.File{
		{Filename: "one.pdf", Data: []byte("first")},
		{Filename: "bad-two.pdf", Data: []byte("ignored")},
		{Filename: "three.pdf", Data: []byte("third")},
	}
	report := c.ProcessClaim(context.Background(), files)

	require.Equal(t, WorkflowCompleted, report.WorkflowStatus)
	assert.Contains(t, captured, "with 3 documents")
	assert.Contains(t, captured, "=== Document 2: bad-two.pdf ===")
	assert.Contains(t, captured, "[Error: unreadable]")
	assert.Contains(t, captured, "first")
	assert.Contains(t, captured, "third")
}

func TestCoordinator_Idempotent(t *testing.T) {
	c := NewCoordinator(fullPipeline(t), stubExtractor{}, time.Minute, nil)

	r1 := c.ProcessClaim(context.Background(), someFiles())
	r2 := c.ProcessClaim(context.Background(), someFiles())

	require.Equal(t, WorkflowCompleted, r1.WorkflowStatus)
	require.Equal(t, WorkflowCompleted, r2.WorkflowStatus)
	assert.NotEqual(t, r1.RunID, r2.RunID)

	b1, err := json.Marshal(r1.AgentOutputs)
	require.NoError(t, err)
	b2, err := json.Marshal(r2.AgentOutputs)
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))
}

func TestCoordinator_ConcurrentRunsIndependent(t *testing.T) {
	c := NewCoordinator(fullPipeline(t), stubExtractor{}, time.Minute, nil)

	const n = 8
	reports := make(chan *Report, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			files := []extract.File{{Filename: fmt.Sprintf("claim-%d.pdf", i), Data: []byte("text")}}
			reports <- c.ProcessClaim(context.Background(), files)
		}(i)
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		r := <-reports
		assert.Equal(t, WorkflowCompleted, r.WorkflowStatus)
		assert.False(t, seen[r.RunID], "run IDs must be unique")
		seen[r.RunID] = true
	}
}
