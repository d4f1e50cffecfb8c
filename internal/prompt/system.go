package prompt

import "github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

// DefaultSystemInstructions are sent alongside each prompt unless the
// operation's configuration overrides them.
var DefaultSystemInstructions = map[types.Operation]string{
	types.OperationAnalyze: "Provide a detailed ATS analysis comparing the resume with the job description using the checklist.",
	types.OperationBoost:   "Revise the resume to improve its ATS compatibility based on the provided analysis report. Preserve details and improve formatting.",
	types.OperationCustom:  "Update the resume strictly following the custom instructions provided. Ensure professional tone and formatting.",
	types.OperationCreate:  "Generate a professional resume in Markdown format using the provided information.",
}

// SystemInstruction returns override when set, else the default for op.
func SystemInstruction(op types.Operation, override string) string {
	if override != "" {
		return override
	}
	return DefaultSystemInstructions[op]
}
