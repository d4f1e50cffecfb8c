package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by viper.
const EnvPrefix = "ATSOPT"

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (ATSOPT_AI_APIKEY, then GEMINI_API_KEY / OPENROUTER_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Extraction    ExtractionConfig    `mapstructure:"extraction"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the global model gateway settings and per-operation overrides.
type AIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        time.Duration        `mapstructure:"timeout"` // zero means no timeout
	APIKey         string               `mapstructure:"apiKey"`
	BaseURL        string               `mapstructure:"baseURL"`
	Temperature    float32              `mapstructure:"temperature"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	Analyze OperationAIConfig `mapstructure:"analyze"`
	Boost   OperationAIConfig `mapstructure:"boost"`
	Custom  OperationAIConfig `mapstructure:"custom"`
	Create  OperationAIConfig `mapstructure:"create"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // closed-state count reset
	Timeout          time.Duration `mapstructure:"timeout"`          // open to half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // before the ratio is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// OperationAIConfig holds AI configuration for one operation. Empty or nil
// fields fall back to the global AIConfig.
type OperationAIConfig struct {
	Provider         string                `mapstructure:"provider"`
	Model            string                `mapstructure:"model"`
	Timeout          *time.Duration        `mapstructure:"timeout"`
	APIKey           string                `mapstructure:"apiKey"`
	BaseURL          string                `mapstructure:"baseURL"`
	Temperature      *float32              `mapstructure:"temperature"`
	SystemPrompt     string                `mapstructure:"systemPrompt"`
	SystemPromptFile string                `mapstructure:"systemPromptFile"`
	CircuitBreaker   *CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ExtractionConfig selects the document extraction engines.
type ExtractionConfig struct {
	PDFEngine   string `mapstructure:"pdfEngine"`  // "layout" or "pages"
	DOCXEngine  string `mapstructure:"docxEngine"` // "markdown" or "paragraphs"
	MaxFileSize int64  `mapstructure:"maxFileSize"`
	TempDir     string `mapstructure:"tempDir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string          `mapstructure:"host"`
	Port           string          `mapstructure:"port"`
	ReadTimeout    time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration   `mapstructure:"idleTimeout"`
	MaxRequestSize int64           `mapstructure:"maxRequestSize"`
	SessionTTL     time.Duration   `mapstructure:"sessionTTL"`
	APIKeys        []string        `mapstructure:"apiKeys"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit"`
	TLS            TLSConfig       `mapstructure:"tls"`
}

// TLSConfig holds server TLS configuration
type TLSConfig struct {
	Mode       string           `mapstructure:"mode"` // "disabled" or "server"
	CertFile   string           `mapstructure:"certFile"`
	KeyFile    string           `mapstructure:"keyFile"`
	MinVersion string           `mapstructure:"minVersion"`
	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls certificate hot reloading from disk.
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"` // idle limiters are dropped after this
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// VaultConfig holds HashiCorp Vault connection settings.
type VaultConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	Address   string       `mapstructure:"address"`
	Token     string       `mapstructure:"token"`
	TokenFile string       `mapstructure:"tokenFile"`
	Namespace string       `mapstructure:"namespace"`
	Secrets   VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds the KV v2 paths read at startup.
type VaultSecrets struct {
	APIKeys string `mapstructure:"apiKeys"` // server API keys under "keys"
	AIKey   string `mapstructure:"aiKey"`   // model provider key under "api_key"
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from .env, environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment from .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/atsopt/")
	v.AddConfigPath("$HOME/.atsopt")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadSystemPromptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load system prompt files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. API keys are checked when
// a gateway is built, since extraction-only commands need none.
func (c *Config) Validate() error {
	if err := validateProvider(c.AI.Provider); err != nil {
		return err
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("AI timeout must not be negative")
	}
	if err := c.AI.CircuitBreaker.validate(); err != nil {
		return fmt.Errorf("ai.circuitBreaker: %w", err)
	}
	for name, op := range c.AI.operations() {
		if op.Provider != "" {
			if err := validateProvider(op.Provider); err != nil {
				return fmt.Errorf("ai.%s: %w", name, err)
			}
		}
		if op.Timeout != nil && *op.Timeout < 0 {
			return fmt.Errorf("ai.%s: timeout must not be negative", name)
		}
		if op.CircuitBreaker != nil {
			if err := op.CircuitBreaker.validate(); err != nil {
				return fmt.Errorf("ai.%s.circuitBreaker: %w", name, err)
			}
		}
	}

	switch c.Extraction.PDFEngine {
	case PDFEngineLayout, PDFEnginePages:
	default:
		return fmt.Errorf("invalid extraction.pdfEngine: %s (must be '%s' or '%s')", c.Extraction.PDFEngine, PDFEngineLayout, PDFEnginePages)
	}
	switch c.Extraction.DOCXEngine {
	case DOCXEngineMarkdown, DOCXEngineParagraphs:
	default:
		return fmt.Errorf("invalid extraction.docxEngine: %s (must be '%s' or '%s')", c.Extraction.DOCXEngine, DOCXEngineMarkdown, DOCXEngineParagraphs)
	}
	if c.Extraction.MaxFileSize <= 0 {
		return fmt.Errorf("extraction.maxFileSize must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MaxRequestSize < c.Extraction.MaxFileSize {
		return fmt.Errorf("server.maxRequestSize must be at least extraction.maxFileSize")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func validateProvider(provider string) error {
	switch provider {
	case ProviderGemini, ProviderOpenRouter:
		return nil
	default:
		return fmt.Errorf("unsupported AI provider: %s (must be '%s' or '%s')", provider, ProviderGemini, ProviderOpenRouter)
	}
}

func (cb CircuitBreakerConfig) validate() error {
	if !cb.Enabled {
		return nil
	}
	if cb.FailureThreshold <= 0 || cb.FailureThreshold > 1 {
		return fmt.Errorf("failureThreshold must be in (0, 1], got %v", cb.FailureThreshold)
	}
	if cb.MinRequests == 0 {
		return fmt.Errorf("minRequests must be positive")
	}
	return nil
}
