package ai

import (
	"context"
	"fmt"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// Gateway submits one prompt and returns the model's text.
type Gateway interface {
	Generate(ctx context.Context, prompt string) (string, *types.TokenUsage, error)
}

// Request is a single generation call as seen by a provider.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
}

// Completion is a provider's answer to a Request.
type Completion struct {
	Text  string
	Usage *types.TokenUsage
}

// Provider is one external model service.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Completion, error)
	ModelInfo(ctx context.Context, model string) (*ModelInfo, error)
	Close() error
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg *config.OperationAIConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	case config.ProviderOpenRouter:
		return NewOpenRouterProvider(cfg), nil
	}
	return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
}
