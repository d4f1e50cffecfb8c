package common

import (
	"context"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// OperationFunc runs one CLI operation and returns its result.
type OperationFunc[Output any] func(ctx context.Context) (Output, error)

// RunCommand runs operation, logs the tokens it used and writes the result
// through the output handler.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	output *OutputHandler,
	operation OperationFunc[Output],
) error {
	result, err := operation(ctx)
	if err != nil {
		return err
	}

	if usage := TokenUsageOf(result); usage != nil && logger != nil {
		logger.Info("AI token usage",
			"input_tokens", usage.PromptTokens,
			"output_tokens", usage.CompletionTokens,
			"total_tokens", usage.TotalTokens)
	}

	return output.HandleOutput(result, cmdConfig)
}

// TokenUsageOf returns the combined usage reported in a result, or nil.
func TokenUsageOf(result any) *types.TokenUsage {
	switch r := result.(type) {
	case *types.AnalysisResult:
		return r.Usage
	case *types.ResumeDocument:
		return r.Usage
	case *types.BoostResult:
		if r.Resume.Usage == nil && r.Analysis.Usage == nil {
			return nil
		}
		total := &types.TokenUsage{}
		total.Add(r.Resume.Usage)
		total.Add(r.Analysis.Usage)
		return total
	}
	return nil
}
