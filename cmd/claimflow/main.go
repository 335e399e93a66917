package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caresight/claimflow/ai"
	"github.com/caresight/claimflow/config"
	"github.com/caresight/claimflow/extract"
	"github.com/caresight/claimflow/process"
	"github.com/caresight/claimflow/server"
	"github.com/caresight/claimflow/stages"
	"github.com/caresight/claimflow/trace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claimflow",
		Short: "Medical insurance claim document-intake pipeline",
		Long:  "Claimflow classifies and extracts data from claim PDFs and emits an approve/reject/pending decision.",
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newProcessCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildService(cfg config.Config, logger *slog.Logger) (*process.Coordinator, *extract.PDFExtractor, error) {
	model := ai.NewOpenAIModel(cfg.ModelName, cfg.ModelAPIKey, cfg.ModelBaseURL)

	pipeline, err := stages.DefaultPipeline(model, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	if cfg.TraceEnabled {
		pipeline.SetObserver(trace.NewTracer(trace.Config{Directory: cfg.TraceDir}))
	}

	extractor := extract.NewPDFExtractor(cfg.MaxFileSize, cfg.AllowedExtensions, logger)
	coordinator := process.NewCoordinator(pipeline, extractor, cfg.PipelineTimeout, logger)
	return coordinator, extractor, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the claim intake HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
			slog.SetDefault(logger)

			coordinator, extractor, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			handler := server.NewClaimHandler(coordinator, extractor, logger)
			srv := &http.Server{
				Addr:        ":" + cfg.Port,
				Handler:     server.NewRouter(cfg, handler),
				IdleTimeout: 75 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("claimflow listening", "addr", srv.Addr, "model", cfg.ModelName, "timeout", cfg.PipelineTimeout)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-stop:
			}

			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return nil
		},
	}
}

func newProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process <file.pdf> [more.pdf...]",
		Short: "Process claim PDFs from disk and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			slog.SetDefault(logger)

			coordinator, extractor, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			var files []extract.File
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				files = append(files, extract.File{Filename: filepath.Base(path), Data: data})
			}
			if err := extractor.Validate(files); err != nil {
				return err
			}

			report := coordinator.ProcessClaim(cmd.Context(), files)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
