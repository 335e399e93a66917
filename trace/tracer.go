// Package trace writes per-run trace files recording stage lifecycle
// events. Traces are plain text, one line per event, kept under a retention
// policy so a long-lived service does not accumulate files forever.
package trace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type Config struct {
	Directory         string
	RetentionDuration time.Duration
	MaxTraceFiles     int
}

const (
	defaultRetentionDuration = 7 * 24 * time.Hour
	defaultMaxTraceFiles     = 50
)

type Tracer struct {
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	paths map[string]string // run ID -> trace file path
}

func NewTracer(config ...Config) *Tracer {
	cfg := Config{
		Directory:         filepath.Join(os.TempDir(), "claimflow-traces"),
		RetentionDuration: defaultRetentionDuration,
		MaxTraceFiles:     defaultMaxTraceFiles,
	}
	if len(config) > 0 {
		if config[0].Directory != "" {
			cfg.Directory = config[0].Directory
		}
		if config[0].RetentionDuration > 0 {
			cfg.RetentionDuration = config[0].RetentionDuration
		}
		if config[0].MaxTraceFiles > 0 {
			cfg.MaxTraceFiles = config[0].MaxTraceFiles
		}
	}

	t := &Tracer{
		config: cfg,
		logger: slog.Default().With("component", "tracer"),
		paths:  make(map[string]string),
	}
	t.cleanup()
	return t
}

// StageStarted implements workflow.Observer.
func (t *Tracer) StageStarted(runID, stageKey string) {
	t.append(runID, fmt.Sprintf("%s stage=%s event=started", timestamp(), stageKey))
}

// StageFinished implements workflow.Observer.
func (t *Tracer) StageFinished(runID, stageKey string, elapsed time.Duration, err error) {
	line := fmt.Sprintf("%s stage=%s event=finished elapsed=%s", timestamp(), stageKey, elapsed)
	if err != nil {
		line += fmt.Sprintf(" error=%q", err.Error())
	}
	t.append(runID, line)
}

// Path returns the trace file path for a run, if any events were recorded.
func (t *Tracer) Path(runID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paths[runID]
}

func (t *Tracer) append(runID, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, ok := t.paths[runID]
	if !ok {
		if err := os.MkdirAll(t.config.Directory, 0o755); err != nil {
			t.logger.Warn("failed to create trace directory", "error", err)
			return
		}
		path = filepath.Join(t.config.Directory, fmt.Sprintf("run-%s.trace", runID))
		t.paths[runID] = path
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.logger.Warn("failed to open trace file", "path", path, "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}

// cleanup removes trace files past the retention duration and keeps at most
// MaxTraceFiles of the rest, oldest first.
func (t *Tracer) cleanup() {
	entries, err := os.ReadDir(t.config.Directory)
	if err != nil {
		return
	}

	type traceFile struct {
		path    string
		modTime time.Time
	}
	var files []traceFile
	cutoff := time.Now().Add(-t.config.RetentionDuration)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".trace") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(t.config.Directory, e.Name())
		if info.ModTime().Before(cutoff) {
			os.Remove(path)
			continue
		}
		files = append(files, traceFile{path: path, modTime: info.ModTime()})
	}

	if len(files) <= t.config.MaxTraceFiles {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files[:len(files)-t.config.MaxTraceFiles] {
		os.Remove(f.path)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
