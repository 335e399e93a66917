package extract

import (
	"context"
	"fmt"
	"strings"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// File is one uploaded document, an opaque byte blob with a filename.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the outcome of text extraction for one file. Failures are
// per-file and independent; a failed file is carried forward as an explicit
// marker, never dropped.
type Result struct {
	Filename       string `json:"filename"`
	ContentType    string `json:"content_type,omitempty"`
	Text           string `json:"text_content,omitempty"`
	CharacterCount int    `json:"character_count"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// Extractor turns one file into extracted text or a per-file failure.
type Extractor interface {
	Extract(ctx context.Context, file File) Result
}

// ProcessFiles runs the extractor over every file. The result list preserves
// input order and count so downstream stages can reason about how many
// documents were submitted.
func ProcessFiles(ctx context.Context, e Extractor, files []File) []Result {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, e.Extract(ctx, f))
	}
	return results
}

// FormatInput renders the aggregate input blob handed to the first pipeline
// stage. Failed files appear inline as an error marker so the document count
// stays in parity with the submission.
func FormatInput(runID string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Process insurance claim %s with %d documents:\n\n", runID, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "=== Document %d: %s ===\n", i+1, r.Filename)
		if r.Status == StatusSuccess {
			b.WriteString(r.Text)
		} else {
			errMsg := r.Error
			if errMsg == "" {
				errMsg = "Processing failed"
			}
			fmt.Fprintf(&b, "[Error: %s]", errMsg)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
