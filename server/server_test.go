package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresight/claimflow/claim"
	"github.com/caresight/claimflow/config"
	"github.com/caresight/claimflow/extract"
	"github.com/caresight/claimflow/process"
	"github.com/caresight/claimflow/stages"
	"github.com/caresight/claimflow/workflow"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	p := workflow.NewPipeline("test", nil).
		AddStage(workflow.StageFunc{Name: stages.KeyClaimDecision, Fn: func(context.Context, *workflow.View) (any, error) {
			return &claim.Decision{Status: claim.DecisionPending, Reason: "test decision", ConfidenceScore: 0.5}, nil
		}})

	extractor := extract.NewPDFExtractor(1024*1024, []string{"pdf"}, nil)
	coordinator := process.NewCoordinator(p, extractor, time.Minute, nil)
	handler := NewClaimHandler(coordinator, extractor, nil)

	cfg := config.Config{MaxBodyBytes: 10 * 1024 * 1024}
	return NewRouter(cfg, handler)
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range filenames {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake pdf bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProcessClaim_NoFiles(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	body, contentType := multipartBody(t)
	resp, err := http.Post(srv.URL+"/process-claim", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessClaim_BadExtension(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	body, contentType := multipartBody(t, "claim.docx")
	resp, err := http.Post(srv.URL+"/process-claim", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp["detail"], "invalid extension")
}

func TestProcessClaim_ReturnsReport(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	// The payload is not a real PDF; extraction fails per-file but the run
	// still completes with a well-formed report.
	body, contentType := multipartBody(t, "claim.pdf")
	resp, err := http.Post(srv.URL+"/process-claim", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report process.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, process.WorkflowCompleted, report.WorkflowStatus)
	require.NotNil(t, report.AgentOutputs)
	require.NotNil(t, report.AgentOutputs.ClaimDecision)
	assert.Equal(t, claim.DecisionPending, report.AgentOutputs.ClaimDecision.Status)
}

func TestProcessClaim_NotMultipart(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/process-claim", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
