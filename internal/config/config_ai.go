package config

import (
	"os"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

func (a *AIConfig) operations() map[types.Operation]*OperationAIConfig {
	return map[types.Operation]*OperationAIConfig{
		types.OperationAnalyze: &a.Analyze,
		types.OperationBoost:   &a.Boost,
		types.OperationCustom:  &a.Custom,
		types.OperationCreate:  &a.Create,
	}
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.CircuitBreaker == nil {
		cb := c.AI.CircuitBreaker
		opCfg.CircuitBreaker = &cb
	}
	if opCfg.BaseURL == "" {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.BaseURL == "" && opCfg.Provider == ProviderOpenRouter {
		opCfg.BaseURL = DefaultOpenRouterURL
	}

	// The global key only applies to the provider it was configured for
	if opCfg.APIKey == "" && opCfg.Provider == c.AI.Provider {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = providerEnvKey(opCfg.Provider)
	}
}

// providerEnvKey returns the conventional provider key variable.
func providerEnvKey(provider string) string {
	switch provider {
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// GetOperationConfig returns the AI configuration for op with fallback to the global config.
func (c *Config) GetOperationConfig(op types.Operation) OperationAIConfig {
	var config OperationAIConfig
	if opCfg, ok := c.AI.operations()[op]; ok {
		config = *opCfg
	}
	c.applyOperationDefaults(&config)
	return config
}

// EffectiveTimeout dereferences Timeout, returning zero when unset.
func (o OperationAIConfig) EffectiveTimeout() time.Duration {
	if o.Timeout == nil {
		return 0
	}
	return *o.Timeout
}

// EffectiveTemperature dereferences Temperature.
func (o OperationAIConfig) EffectiveTemperature() float32 {
	if o.Temperature == nil {
		return 0
	}
	return *o.Temperature
}
