package cli

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/common"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new resume from your details",
	Long: `Write an ATS-friendly resume from structured details.

Name, email, phone, education, experience and skills are required. The
other sections are included when given.`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

var (
	createConfig common.CommandConfig
	createForm   types.FormData
	createExport string
)

func init() {
	outputFlags(createCmd, &createConfig, &createExport)

	f := createCmd.Flags()
	f.StringVar(&createForm.Name, "name", "", "Full name")
	f.StringVar(&createForm.Email, "email", "", "Email address")
	f.StringVar(&createForm.Phone, "phone", "", "Phone number")
	f.StringVar(&createForm.LinkedIn, "linkedin", "", "LinkedIn profile URL")
	f.StringVar(&createForm.Address, "address", "", "Postal address")
	f.StringVar(&createForm.Education, "education", "", "Education history")
	f.StringVar(&createForm.Experience, "experience", "", "Work experience")
	f.StringVar(&createForm.Skills, "skills", "", "Skills")
	f.StringVar(&createForm.Projects, "projects", "", "Projects")
	f.StringVar(&createForm.Certifications, "certifications", "", "Certifications")
	f.StringVar(&createForm.Achievements, "achievements", "", "Achievements")
	f.StringVar(&createForm.Hobbies, "hobbies", "", "Hobbies and interests")
	f.StringVar(&createExport, "export", "", "Save the new resume to this file (.md, .html or .docx)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	createOperation := func(ctx context.Context) (*types.ResumeDocument, error) {
		doc, err := rt.pipeline.CreateFromForm(ctx, rt.state, createForm)
		if err != nil {
			return nil, err
		}
		if err := rt.exportTo(ctx, types.ResumeCreated, createExport); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := common.RunCommand(cmd.Context(), rt.logger, createConfig, common.NewOutputHandler(rt.logger), createOperation); err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}
