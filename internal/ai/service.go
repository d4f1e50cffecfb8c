package ai

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/prompt"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// Observer receives the outcome of every generation call.
type Observer interface {
	ObserveGeneration(ctx context.Context, op types.Operation, provider, model string, duration time.Duration, usage *types.TokenUsage, err error)
}

// Service is the gateway for one operation. It issues exactly one provider
// call per Generate and never retries.
type Service struct {
	provider Provider
	op       types.Operation
	config   config.OperationAIConfig
	system   string
	breaker  *CircuitBreaker
	observer Observer
	logger   *errors.Logger
}

var _ Gateway = (*Service)(nil)

// NewService creates the gateway for op from its resolved configuration.
func NewService(ctx context.Context, cfg config.OperationAIConfig, op types.Operation, logger *errors.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"No API key configured for "+cfg.Provider, nil).
			WithContext("operation", op)
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation", op,
		"model", cfg.Model,
		"temperature", cfg.EffectiveTemperature(),
		"timeout", cfg.EffectiveTimeout())

	provider, err := NewProvider(ctx, &cfg)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Failed to create AI provider", err).
			WithContext("provider", cfg.Provider)
	}
	return NewServiceWithProvider(provider, cfg, op, logger), nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider Provider, cfg config.OperationAIConfig, op types.Operation, logger *errors.Logger) *Service {
	return &Service{
		provider: provider,
		op:       op,
		config:   cfg,
		system:   prompt.SystemInstruction(op, cfg.SystemPrompt),
		breaker:  NewCircuitBreaker(op, cfg.CircuitBreaker, logger),
		logger:   logger,
	}
}

// SetObserver registers o for generation outcomes.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// Operation returns the operation this gateway serves.
func (s *Service) Operation() types.Operation { return s.op }

// Generate submits prompt and returns the model text.
func (s *Service) Generate(ctx context.Context, userPrompt string) (string, *types.TokenUsage, error) {
	tracer := otel.Tracer("atsopt.ai")
	ctx, span := tracer.Start(ctx, s.provider.Name()+"."+string(s.op))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", s.provider.Name()),
		attribute.String("ai.model", s.config.Model),
		attribute.String("ai.operation", string(s.op)),
		attribute.Float64("ai.temperature", float64(s.config.EffectiveTemperature())),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	if timeout := s.config.EffectiveTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := Request{
		Model:       s.config.Model,
		System:      s.system,
		Prompt:      userPrompt,
		Temperature: s.config.EffectiveTemperature(),
	}

	start := time.Now()
	completion, err := s.breaker.Execute(func() (*Completion, error) {
		return s.provider.Generate(ctx, req)
	})
	duration := time.Since(start)

	if err != nil {
		gwErr := classifyError(err).
			WithContext("operation", s.op).
			WithContext("provider", s.provider.Name())
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		s.logger.LogError(gwErr, "AI generation failed", "model", s.config.Model, "duration", duration)
		s.observe(ctx, duration, nil, gwErr)
		return "", nil, gwErr
	}

	if u := completion.Usage; u != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", int64(u.PromptTokens)),
			attribute.Int64("ai.tokens.output", int64(u.CompletionTokens)),
			attribute.Int64("ai.tokens.total", int64(u.TotalTokens)),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(completion.Text)),
	)
	s.logger.Debug("AI generation completed",
		"operation", s.op,
		"provider", s.provider.Name(),
		"duration", duration,
		"output_length", len(completion.Text))
	s.observe(ctx, duration, completion.Usage, nil)

	return completion.Text, completion.Usage, nil
}

func (s *Service) observe(ctx context.Context, d time.Duration, usage *types.TokenUsage, err error) {
	if s.observer != nil {
		s.observer.ObserveGeneration(ctx, s.op, s.provider.Name(), s.config.Model, d, usage, err)
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	info, err := s.provider.ModelInfo(checkCtx, s.config.Model)
	if err != nil {
		s.logger.Warn("Model availability check failed",
			"model", s.config.Model,
			"provider", s.provider.Name(),
			"error", err.Error())
		return &ModelInfo{Name: s.config.Model, Error: "Failed to get model info: " + err.Error()}
	}
	return info
}

// CircuitBreakerStats returns circuit breaker statistics
func (s *Service) CircuitBreakerStats() map[string]any {
	return s.breaker.Stats()
}

// IsHealthy reports whether the circuit breaker admits calls.
func (s *Service) IsHealthy() bool {
	return s.breaker.IsHealthy()
}

func (s *Service) Close() error {
	return s.provider.Close()
}

// classifyError maps a provider failure onto a GatewayError code.
func classifyError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewGatewayError(errors.ErrCodeGatewayUnavailable,
			"The AI service is temporarily unavailable, please try again later", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewGatewayError(errors.ErrCodeGatewayTimeout,
			"The AI service did not respond in time", err)
	case stderrors.Is(err, context.Canceled):
		return errors.NewGatewayError(errors.ErrCodeGatewayFailed, "The AI request was cancelled", err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewGatewayError(errors.ErrCodeGatewayTimeout,
			"The AI service did not respond in time", err)
	}

	if code := statusCode(err); code != 0 {
		appErr := errors.NewGatewayError(errors.ErrCodeGatewayFailed, "The AI service rejected the request", err)
		switch code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			appErr = errors.NewGatewayError(errors.ErrCodeGatewayUnavailable,
				"The AI service is busy, please try again later", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			appErr.Message = "The AI service rejected the configured API key"
		}
		return appErr.WithContext("status_code", code)
	}

	if netErr != nil {
		return errors.NewGatewayError(errors.ErrCodeGatewayFailed, "The AI service could not be reached", err)
	}
	return errors.NewGatewayError(errors.ErrCodeGatewayFailed, "The AI service call failed", err)
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
