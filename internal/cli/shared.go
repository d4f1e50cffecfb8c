package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/ai"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/pipeline"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/session"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runtime bundles what an AI-backed command needs for one invocation.
type runtime struct {
	cfg      *config.Config
	logger   *errors.Logger
	services ai.Services
	pipeline *pipeline.Pipeline
	files    *common.FileProcessor
	state    *session.AppState
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	extractor, err := extract.NewService(cfg.Extraction, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	services, err := ai.NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI services: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		services: services,
		pipeline: pipeline.New(extractor, services.Gateways(), logger),
		files:    common.NewFileProcessor(cfg.Extraction.MaxFileSize, logger),
		state:    session.NewAppState(uuid.NewString()),
	}, nil
}

func (r *runtime) Close() {
	if err := r.services.Close(); err != nil {
		r.logger.LogError(err, "Failed to close AI services")
	}
}

func (r *runtime) loadResume(ctx context.Context, path string) error {
	upload, err := r.files.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = r.pipeline.LoadResume(ctx, r.state, upload.Filename, upload.Data)
	return err
}

// loadJobDescription loads the job description from text when it is not
// blank, else from the file at path.
func (r *runtime) loadJobDescription(ctx context.Context, path, text string) error {
	if path == "" || strings.TrimSpace(text) != "" {
		if path != "" {
			r.logger.Warn("Job description text given, ignoring file", "file", path)
		}
		_, err := r.pipeline.LoadJobDescription(ctx, r.state, "", nil, text)
		return err
	}
	upload, err := r.files.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = r.pipeline.LoadJobDescription(ctx, r.state, upload.Filename, upload.Data, text)
	return err
}

// exportTo renders the kind resume in the format given by path's extension
// and writes it there.
func (r *runtime) exportTo(ctx context.Context, kind types.ResumeKind, path string) error {
	if path == "" {
		return nil
	}
	art, err := r.pipeline.Export(ctx, r.state, kind, utils.GetFileExtension(path))
	if err != nil {
		return err
	}
	if err := r.files.WriteFile(path, art.Data); err != nil {
		return err
	}
	r.logger.Info("Resume exported", "file", path, "mime", art.MIME, "size", utils.FormatFileSize(int64(len(art.Data))))
	return nil
}

// outputFlags registers --output and --format on cmd and validates the
// format, and the --export path when exportPath is set, before the command
// runs.
func outputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig, exportPath *string) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if cmdConfig.OutputFormat == "" {
			cmdConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		if err := common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		if exportPath != nil {
			return common.ValidateExportPath(*exportPath)
		}
		return nil
	}

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}
