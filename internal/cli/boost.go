package cli

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/spf13/cobra"
)

var boostCmd = &cobra.Command{
	Use:   "boost [resume-file] [job-description-file]",
	Short: "Rewrite a resume to raise its ATS score",
	Long: `Analyze a resume against a job description, rewrite it to address the
report, and score the rewritten resume again.

Use --export to also save the boosted resume. The file extension picks the
format: .md, .html or .docx.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBoost,
}

var (
	boostConfig  common.CommandConfig
	boostJobText string
	boostExport  string
)

func init() {
	outputFlags(boostCmd, &boostConfig, &boostExport)
	boostCmd.Flags().StringVar(&boostJobText, "job-text", "", "Job description text (instead of a file)")
	boostCmd.Flags().StringVar(&boostExport, "export", "", "Save the boosted resume to this file (.md, .html or .docx)")
}

func runBoost(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	boostOperation := func(ctx context.Context) (*types.BoostResult, error) {
		if err := rt.loadResume(ctx, args[0]); err != nil {
			return nil, err
		}
		if err := rt.loadJobDescription(ctx, jobDescriptionArg(args), boostJobText); err != nil {
			return nil, err
		}
		if _, err := rt.pipeline.Analyze(ctx, rt.state); err != nil {
			return nil, err
		}
		result, err := rt.pipeline.Boost(ctx, rt.state)
		if err != nil {
			return nil, err
		}
		if err := rt.exportTo(ctx, types.ResumeBoosted, boostExport); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := common.RunCommand(cmd.Context(), rt.logger, boostConfig, common.NewOutputHandler(rt.logger), boostOperation); err != nil {
		return fmt.Errorf("failed to boost resume: %w", err)
	}
	rt.logger.Info("Resume boost completed successfully",
		"score_before", rt.state.ATSScore,
		"score_after", rt.state.BoostedATSScore)
	return nil
}
