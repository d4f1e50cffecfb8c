package cli

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Analyze a resume the way an applicant tracking system would and report
an ATS score out of 100 with a detailed report.

The report covers:
- Keyword and skill matches
- Missing keywords
- Formatting issues that hurt parsing
- Suggested improvements

The job description can be a PDF or text file, or pasted with --job-text.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAnalyze,
}

var (
	analyzeConfig  common.CommandConfig
	analyzeJobText string
)

func init() {
	outputFlags(analyzeCmd, &analyzeConfig, nil)
	analyzeCmd.Flags().StringVar(&analyzeJobText, "job-text", "", "Job description text (instead of a file)")
}

// jobDescriptionArg returns the optional second positional argument.
func jobDescriptionArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	analyzeOperation := func(ctx context.Context) (*types.AnalysisResult, error) {
		if err := rt.loadResume(ctx, args[0]); err != nil {
			return nil, err
		}
		if err := rt.loadJobDescription(ctx, jobDescriptionArg(args), analyzeJobText); err != nil {
			return nil, err
		}
		rt.logger.Info("Starting ATS analysis",
			"resume_chars", len(rt.state.ResumeText),
			"job_chars", len(rt.state.JobDescription),
			"output_format", analyzeConfig.OutputFormat)
		return rt.pipeline.Analyze(ctx, rt.state)
	}

	if err := common.RunCommand(cmd.Context(), rt.logger, analyzeConfig, common.NewOutputHandler(rt.logger), analyzeOperation); err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	rt.logger.Info("ATS analysis completed successfully", "score", rt.state.ATSScore)
	return nil
}
