package server

import (
	"context"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/ai"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/observability"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/pipeline"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/session"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionResponse is the body returned by every session operation.
type SessionResponse struct {
	Session session.Snapshot `json:"session"`
	Result  any              `json:"result,omitempty"`
}

// CreateRequest is the JSON body of the create-from-form endpoint.
type CreateRequest = types.FormData

// ModelMonitor reports the health of one operation's gateway.
type ModelMonitor interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	CircuitBreakerStats() map[string]any
	IsHealthy() bool
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig   config.TLSConfig
	CertWatcher *CertWatcher

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Pipeline      *pipeline.Pipeline
	Sessions      *session.Store
	Models        map[types.Operation]ModelMonitor
	Observability *observability.ObservabilityManager

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	SessionTTL     time.Duration
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom copies the server section of the application config.
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		SessionTTL:     cfg.Server.SessionTTL,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance. models may be nil when no
// gateway health is to be reported.
func NewServer(appCfg *config.Config, cfg ServerConfig, p *pipeline.Pipeline, models map[types.Operation]ModelMonitor, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, cfg.RateLimit.IdleTimeout, logger)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Pipeline:       p,
		Sessions:       session.NewStore(ttl, logger),
		Models:         models,
		Logger:         logger,
	}
}

// MonitorsFor exposes ai.Services as model monitors.
func MonitorsFor(services ai.Services) map[types.Operation]ModelMonitor {
	out := make(map[types.Operation]ModelMonitor, len(services))
	for op, svc := range services {
		out[op] = svc
	}
	return out
}
