package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port         string
	MaxBodyBytes int64

	// Pipeline
	PipelineTimeout time.Duration

	// File intake
	MaxFileSize       int64
	AllowedExtensions []string

	// Model endpoint (OpenAI-compatible; works against Ollama)
	ModelName    string
	ModelBaseURL string
	ModelAPIKey  string

	// Tracing
	TraceDir     string
	TraceEnabled bool
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true"
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func Load() Config {
	return Config{
		Port:         env("CLAIMFLOW_PORT", "8000"),
		MaxBodyBytes: envInt64("CLAIMFLOW_MAX_BODY_BYTES", 100*1024*1024), // 100 MB

		// Stages may be slow model calls; the timeout covers the whole
		// pipeline, not individual stages.
		PipelineTimeout: envDuration("CLAIMFLOW_PIPELINE_TIMEOUT", 10*time.Minute),

		MaxFileSize:       envInt64("CLAIMFLOW_MAX_FILE_SIZE", 10*1024*1024), // 10 MB
		AllowedExtensions: envList("CLAIMFLOW_ALLOWED_EXTENSIONS", []string{"pdf"}),

		ModelName:    env("CLAIMFLOW_MODEL", "llama3.2:3b"),
		ModelBaseURL: env("CLAIMFLOW_MODEL_BASE_URL", "http://localhost:11434/v1"),
		ModelAPIKey:  env("CLAIMFLOW_MODEL_API_KEY", ""),

		TraceDir:     env("CLAIMFLOW_TRACE_DIR", ""),
		TraceEnabled: envBool("CLAIMFLOW_TRACE_ENABLED", false),
	}
}
