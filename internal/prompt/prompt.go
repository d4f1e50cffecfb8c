// Package prompt builds the instruction text sent to the model for each
// operation. Building is pure string interpolation: inputs are neither
// validated nor truncated.
package prompt

import (
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// Inputs carries every value a template may interpolate. Fields an
// operation does not use are ignored.
type Inputs struct {
	Resume             string
	JobDescription     string
	Report             string
	CustomInstructions string
	Form               types.FormData
}

// Build returns the prompt for op.
func Build(op types.Operation, in Inputs) (string, error) {
	switch op {
	case types.OperationAnalyze:
		return Analyze(in.Resume, in.JobDescription), nil
	case types.OperationBoost:
		return Boost(in.Resume, in.JobDescription, in.Report), nil
	case types.OperationCustom:
		return Custom(in.Resume, in.CustomInstructions), nil
	case types.OperationCreate:
		return Create(in.Form), nil
	default:
		return "", fmt.Errorf("unknown operation: %s", op)
	}
}

const analyzeTemplate = `Analyze the following resume with respect to the job description below.
Use the following checklist for guidance:
%s
Provide the ATS score (0 to 100) as a floating point number with a breakdown of scores per section, and a detailed improvement report.
Return the output in the following format:

ATS Score : <ATS SCORE>
Detailed Report: <DETAILED REPORT>

Resume:
%s

Job Description:
%s`

// Analyze asks for a score and an improvement report against the checklist.
func Analyze(resume, jobDescription string) string {
	return fmt.Sprintf(analyzeTemplate, Checklist, resume, jobDescription)
}

const boostTemplate = `You are a highly skillful tool that boosts and enhances resumes by integrating recommendations from an analysis report.
Revise the resume to improve its ATS score, compatibility, and formatting while preserving its details and style.
Return the updated resume in Markdown format with proper headings, bullet points, and styling.

ATS Analysis Report:
%s

Resume:
%s

Job Description:
%s

Return only the updated resume in Markdown format.
Strict guideline: Return only the updated resume text in a professional tone.`

// Boost asks for a revised resume that applies an analysis report.
func Boost(resume, jobDescription, report string) string {
	return fmt.Sprintf(boostTemplate, report, resume, jobDescription)
}

// The first line keeps its trailing space.
const customTemplate = "You are a professional resume editor. \n" +
	`Using the following resume, update it strictly according to the custom instructions provided.
Resume:
%s

Custom Instructions:
%s

Return only the updated resume in Markdown format in a professional tone.`

// Custom asks for a resume edited according to free-form instructions.
func Custom(resume, instructions string) string {
	return fmt.Sprintf(customTemplate, resume, instructions)
}

const createTemplate = `Based on the following information, create a professional resume in Markdown format.
Use clear headings, bullet points, and a professional tone. Include all mandatory details and incorporate optional sections as provided.

Name: %s
Email: %s
Phone: %s
LinkedIn: %s
Address: %s

Education:
%s

Work Experience:
%s

Skills:
%s

Projects (Optional):
%s

Certifications (Optional):
%s

Achievements (Optional):
%s

Hobbies (Optional):
%s

Return only the resume in Markdown format.`

// Create asks for a new resume from form fields. Absent fields render empty.
func Create(f types.FormData) string {
	return fmt.Sprintf(createTemplate,
		f.Name, f.Email, f.Phone, f.LinkedIn, f.Address,
		f.Education, f.Experience, f.Skills,
		f.Projects, f.Certifications, f.Achievements, f.Hobbies)
}
