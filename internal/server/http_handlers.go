package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

const defaultHealthCheckTimeout = 10 * time.Second

func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports model availability per operation, breaker state and
// certificate status. Any unavailable model degrades the service.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atsopt",
		"version": s.Version,
	}

	models, modelsHealthy := s.checkModelsHealth(r.Context())
	response["ai_models"] = models
	response["circuit_breakers"] = s.circuitBreakerStatus()

	overallHealthy := modelsHealthy
	if s.CertWatcher != nil {
		certStatus := s.CertWatcher.Status()
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkModelsHealth queries each operation's model within the configured
// health check timeout.
func (s *Server) checkModelsHealth(ctx context.Context) (map[string]any, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.getHealthCheckTimeout())
	defer cancel()

	status := make(map[string]any, len(types.Operations))
	healthy := true
	for _, op := range types.Operations {
		monitor, ok := s.Models[op]
		if !ok {
			status[string(op)] = map[string]any{"available": false, "error": "not configured"}
			healthy = false
			continue
		}
		info := monitor.GetModelInfo(ctx)
		status[string(op)] = info
		if info == nil || !info.Available || !monitor.IsHealthy() {
			healthy = false
		}
	}
	return status, healthy
}

func (s *Server) circuitBreakerStatus() map[string]any {
	status := make(map[string]any, len(s.Models))
	for op, monitor := range s.Models {
		stats := monitor.CircuitBreakerStats()
		if stats == nil {
			stats = map[string]any{"enabled": false}
		}
		status[string(op)] = stats
	}
	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atsopt",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"sessions":         s.Sessions.GetStats(),
		"circuit_breakers": s.circuitBreakerStatus(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// statusFor maps an error onto an HTTP status code.
func statusFor(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		if appErr.Code == errors.ErrCodeSessionNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case errors.ErrorTypeExtraction:
		switch appErr.Code {
		case errors.ErrCodeUnsupportedFormat:
			return http.StatusUnsupportedMediaType
		case errors.ErrCodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeGateway:
		switch appErr.Code {
		case errors.ErrCodeGatewayUnavailable:
			return http.StatusServiceUnavailable
		case errors.ErrCodeGatewayTimeout:
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeAppError writes err as an ErrorResponse with its mapped status.
func writeAppError(w http.ResponseWriter, err error) {
	code := string(errors.ErrorTypeInternal)
	title := "Internal error"
	message := "An unexpected error occurred"
	if appErr, ok := errors.AsAppError(err); ok {
		code = appErr.Code
		title = string(appErr.Type) + " error"
		message = appErr.Message
	}
	writeErrorResponse(w, title, code, message, statusFor(err))
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: title, Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent, so an encode error cannot be reported
	_ = json.NewEncoder(w).Encode(v)
}
