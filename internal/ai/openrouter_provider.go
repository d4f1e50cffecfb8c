package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenRouterProvider implements Provider for the OpenRouter chat completions API.
type OpenRouterProvider struct {
	client *resty.Client
}

var _ Provider = (*OpenRouterProvider)(nil)

// StatusError is a non-2xx answer from an HTTP model service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("model service returned %d: %s", e.StatusCode, e.Message)
}

// NewOpenRouterProvider creates a resty client bound to cfg.BaseURL.
func NewOpenRouterProvider(cfg *config.OperationAIConfig) *OpenRouterProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultOpenRouterURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Resume ATS Optimizer")

	return &OpenRouterProvider{client: client}
}

func (o *OpenRouterProvider) Name() string { return config.ProviderOpenRouter }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

// Generate posts one chat completion with an optional system message.
func (o *OpenRouterProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	body := chatRequest{Model: req.Model}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.Temperature > 0 {
		temperature := req.Temperature
		body.Temperature = &temperature
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}

	payload := resp.String()
	// OpenRouter reports some upstream failures inside a 200 body
	if msg := gjson.Get(payload, "error.message"); msg.Exists() {
		code := int(gjson.Get(payload, "error.code").Int())
		if code == 0 {
			code = http.StatusBadGateway
		}
		return nil, &StatusError{StatusCode: code, Message: msg.String()}
	}

	content := gjson.Get(payload, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("response contained no choices")
	}

	return &Completion{Text: content.String(), Usage: openRouterTokenUsage(payload)}, nil
}

// ModelInfo looks the model up in the provider's model list.
func (o *OpenRouterProvider) ModelInfo(ctx context.Context, model string) (*ModelInfo, error) {
	resp, err := o.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}

	var info *ModelInfo
	gjson.Get(resp.String(), "data").ForEach(func(_, m gjson.Result) bool {
		if m.Get("id").String() != model {
			return true
		}
		info = &ModelInfo{
			Name:        model,
			DisplayName: m.Get("name").String(),
			Available:   true,
		}
		return false
	})
	if info == nil {
		return nil, fmt.Errorf("model %s not listed by provider", model)
	}
	return info, nil
}

func (o *OpenRouterProvider) Close() error {
	o.client.GetClient().CloseIdleConnections()
	return nil
}

func statusError(resp *resty.Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode(),
		Message:    gjson.Get(resp.String(), "error.message").String(),
	}
}

func openRouterTokenUsage(payload string) *types.TokenUsage {
	usage := gjson.Get(payload, "usage")
	if !usage.Exists() {
		return nil
	}
	return &types.TokenUsage{
		PromptTokens:     int32(usage.Get("prompt_tokens").Int()),
		CompletionTokens: int32(usage.Get("completion_tokens").Int()),
		TotalTokens:      int32(usage.Get("total_tokens").Int()),
	}
}
