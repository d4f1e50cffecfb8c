package cli

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the text of a resume or job description",
	Long: `Extract the text of a PDF, Word or plain text file exactly as the
analysis sees it. Word documents keep their headings and lists as Markdown.

Use --job-description to apply the job description rules, which accept
.txt, .pdf and .docx but not .tex.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	extractConfig common.CommandConfig
	extractAsJob  bool
)

func init() {
	outputFlags(extractCmd, &extractConfig, nil)
	extractCmd.Flags().BoolVar(&extractAsJob, "job-description", false, "Treat the file as a job description")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	svc, err := extract.NewService(cfg.Extraction, logger)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	files := common.NewFileProcessor(cfg.Extraction.MaxFileSize, logger)

	purpose := extract.PurposeResume
	if extractAsJob {
		purpose = extract.PurposeJobDescription
	}

	extractOperation := func(ctx context.Context) (*types.ExtractionResult, error) {
		upload, err := files.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		kind, err := extract.KindFromFilename(upload.Filename, purpose)
		if err != nil {
			return nil, err
		}
		text, err := svc.Extract(ctx, types.UploadedDocument{Filename: upload.Filename, Kind: kind, Data: upload.Data})
		if err != nil {
			return nil, err
		}
		return &types.ExtractionResult{
			Filename: upload.Filename,
			Kind:     kind,
			Engine:   svc.Engine(kind),
			Text:     text,
		}, nil
	}

	logger.Info("Starting text extraction", "file", args[0], "output_format", extractConfig.OutputFormat)
	return common.RunCommand(cmd.Context(), logger, extractConfig, common.NewOutputHandler(logger), extractOperation)
}
