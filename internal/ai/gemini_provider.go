package ai

import (
	"context"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client. BaseURL, when set, replaces the
// public endpoint.
func NewGeminiProvider(ctx context.Context, cfg *config.OperationAIConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client}, nil
}

func (g *GeminiProvider) Name() string { return config.ProviderGemini }

// Generate sends the prompt as a single user turn.
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	genCfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		genCfg.Temperature = &temperature
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return nil, err
	}
	return &Completion{Text: result.Text(), Usage: geminiTokenUsage(result)}, nil
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) ModelInfo(ctx context.Context, model string) (*ModelInfo, error) {
	m, err := g.client.Models.Get(ctx, model, &genai.GetModelConfig{})
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Name:        model,
		DisplayName: m.DisplayName,
		Version:     m.Version,
		Available:   true,
	}, nil
}

// Close is a no-op: the Gemini client holds no resources in single-shot use.
func (g *GeminiProvider) Close() error {
	return nil
}

func geminiTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &types.TokenUsage{
		PromptTokens:     usage.PromptTokenCount,
		CompletionTokens: usage.CandidatesTokenCount,
		TotalTokens:      usage.TotalTokenCount,
	}
}
