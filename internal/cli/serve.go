package cli

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/ai"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/observability"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/pipeline"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server that runs the resume operations in per-client sessions.

Available endpoints:
- POST /sessions: Create a session
- GET /sessions/{id}: Show the session state
- POST /sessions/{id}/resume: Upload a resume (PDF, Word or text)
- POST /sessions/{id}/job-description: Upload or paste a job description
- POST /sessions/{id}/analyze: Score the resume
- POST /sessions/{id}/boost: Rewrite and re-score the resume
- POST /sessions/{id}/custom: Apply free-form instructions
- POST /sessions/{id}/create: Write a resume from form fields
- GET /sessions/{id}/export?doc=boosted&format=docx: Download a resume
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	set("port", &cfg.Server.Port)
	set("host", &cfg.Server.Host)
	set("tls-mode", &cfg.Server.TLS.Mode)
	set("cert-file", &cfg.Server.TLS.CertFile)
	set("key-file", &cfg.Server.TLS.KeyFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	extractor, err := extract.NewService(cfg.Extraction, logger)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	services, err := ai.NewServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.LogError(err, "Failed to close AI services")
		}
	}()
	services.SetObserver(om)

	p := pipeline.New(extractor, services.Gateways(), logger)
	p.SetRecorder(om)

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), p, server.MonitorsFor(services), logger)
	srv.Observability = om
	defer srv.Close()

	return srv.Start(ctx)
}
