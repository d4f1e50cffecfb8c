package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [resume-file]",
	Short: "Apply free-form instructions to a resume",
	Long: `Rewrite a resume following your own instructions, for example
"shorten the summary to two sentences" or "emphasize cloud experience".

Pass the instructions with --instructions or read them from a file with
--instructions-file.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editConfig           common.CommandConfig
	editInstructions     string
	editInstructionsFile string
	editExport           string
)

func init() {
	outputFlags(editCmd, &editConfig, &editExport)
	editCmd.Flags().StringVarP(&editInstructions, "instructions", "i", "", "Editing instructions")
	editCmd.Flags().StringVar(&editInstructionsFile, "instructions-file", "", "Read editing instructions from a file")
	editCmd.Flags().StringVar(&editExport, "export", "", "Save the edited resume to this file (.md, .html or .docx)")
	editCmd.MarkFlagsMutuallyExclusive("instructions", "instructions-file")
}

func runEdit(cmd *cobra.Command, args []string) error {
	instructions := editInstructions
	if editInstructionsFile != "" {
		data, err := os.ReadFile(editInstructionsFile)
		if err != nil {
			return fmt.Errorf("failed to read instructions: %w", err)
		}
		instructions = string(data)
	}

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	editOperation := func(ctx context.Context) (*types.ResumeDocument, error) {
		if err := rt.loadResume(ctx, args[0]); err != nil {
			return nil, err
		}
		doc, err := rt.pipeline.CustomUpdate(ctx, rt.state, "", instructions)
		if err != nil {
			return nil, err
		}
		if err := rt.exportTo(ctx, types.ResumeCustom, editExport); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := common.RunCommand(cmd.Context(), rt.logger, editConfig, common.NewOutputHandler(rt.logger), editOperation); err != nil {
		return fmt.Errorf("failed to edit resume: %w", err)
	}
	return nil
}
