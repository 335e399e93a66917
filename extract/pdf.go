package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts text from PDF files page by page. Individual page
// failures are tolerated: a failed page leaves a marker in the output and
// extraction continues with the next page.
type PDFExtractor struct {
	MaxFileSize       int64
	AllowedExtensions []string
	Logger            *slog.Logger
}

func NewPDFExtractor(maxFileSize int64, allowedExtensions []string, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{"pdf"}
	}
	return &PDFExtractor{
		MaxFileSize:       maxFileSize,
		AllowedExtensions: allowedExtensions,
		Logger:            logger,
	}
}

// Validate rejects a batch before any extraction work: empty batches,
// missing filenames, disallowed extensions and oversized files.
func (e *PDFExtractor) Validate(files []File) error {
	if len(files) == 0 {
		return fmt.Errorf("no files provided")
	}
	for _, f := range files {
		if f.Filename == "" {
			return fmt.Errorf("file must have a name")
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
		if !e.extensionAllowed(ext) {
			return fmt.Errorf("file %s has invalid extension %q, allowed: %s",
				f.Filename, ext, strings.Join(e.AllowedExtensions, ", "))
		}
		if e.MaxFileSize > 0 && int64(len(f.Data)) > e.MaxFileSize {
			return fmt.Errorf("file %s exceeds maximum size of %d bytes", f.Filename, e.MaxFileSize)
		}
	}
	return nil
}

func (e *PDFExtractor) extensionAllowed(ext string) bool {
	for _, allowed := range e.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// Extract pulls the text out of one PDF file. All failures, including
// malformed PDFs that make the parser panic, yield a failed result rather
// than an error escaping to the caller.
func (e *PDFExtractor) Extract(ctx context.Context, file File) Result {
	if err := ctx.Err(); err != nil {
		return failedResult(file, err.Error())
	}

	text, err := e.extractText(file)
	if err != nil {
		e.Logger.Warn("text extraction failed", "filename", file.Filename, "error", err)
		return failedResult(file, err.Error())
	}

	return Result{
		Filename:       file.Filename,
		ContentType:    file.ContentType,
		Text:           text,
		CharacterCount: len(text),
		Status:         StatusSuccess,
	}
}

func (e *PDFExtractor) extractText(file File) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse %s: %v", file.Filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}

	var b strings.Builder
	successful, failed := 0, 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pageText, pageErr := e.extractPage(reader, pageNum)
		if pageErr != nil {
			failed++
			e.Logger.Warn("page extraction failed", "filename", file.Filename, "page", pageNum, "error", pageErr)
			fmt.Fprintf(&b, "\n--- Page %d (extraction failed) ---\n", pageNum)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		successful++
		fmt.Fprintf(&b, "\n--- Page %d ---\n", pageNum)
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("[No readable text found in %s]", file.Filename), nil
	}

	e.Logger.Debug("text extraction completed",
		"filename", file.Filename, "pages_ok", successful, "pages_failed", failed, "characters", len(out))
	return out, nil
}

func (e *PDFExtractor) extractPage(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page parse error: %v", r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", pageNum)
	}
	return page.GetPlainText(nil)
}

func failedResult(file File, errMsg string) Result {
	return Result{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Status:      StatusFailed,
		Error:       errMsg,
	}
}
