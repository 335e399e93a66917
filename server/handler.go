package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/caresight/claimflow/extract"
	"github.com/caresight/claimflow/process"
)

// ClaimHandler accepts multipart claim submissions and hands them to the
// coordinator.
type ClaimHandler struct {
	Coordinator *process.Coordinator
	Extractor   *extract.PDFExtractor
	Logger      *slog.Logger
}

func NewClaimHandler(coordinator *process.Coordinator, extractor *extract.PDFExtractor, logger *slog.Logger) *ClaimHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimHandler{Coordinator: coordinator, Extractor: extractor, Logger: logger}
}

// ProcessClaim handles POST /process-claim: a multipart form with one or
// more "files" parts. Validation problems are a 400; everything past
// validation always yields a 200 with a well-formed report.
func (h *ClaimHandler) ProcessClaim(maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
			return
		}

		files, err := readFiles(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.Extractor.Validate(files); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		report := h.Coordinator.ProcessClaim(r.Context(), files)
		writeJSON(w, http.StatusOK, report)
	}
}

func readFiles(r *http.Request) ([]extract.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	var files []extract.File
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
		}
		files = append(files, extract.File{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
