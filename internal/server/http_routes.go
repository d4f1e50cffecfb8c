package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	sizeLimit := s.requestSizeLimitMiddleware()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(sizeLimit(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /sessions", protect(s.createSessionHandler))
	mux.HandleFunc("GET /sessions/{id}", protect(s.withSession(s.getSessionHandler)))
	mux.HandleFunc("DELETE /sessions/{id}", protect(s.deleteSessionHandler))
	mux.HandleFunc("POST /sessions/{id}/resume", protect(s.withSession(s.uploadResumeHandler)))
	mux.HandleFunc("POST /sessions/{id}/job-description", protect(s.withSession(s.jobDescriptionHandler)))
	mux.HandleFunc("POST /sessions/{id}/analyze", protect(s.withSession(s.analyzeHandler)))
	mux.HandleFunc("POST /sessions/{id}/boost", protect(s.withSession(s.boostHandler)))
	mux.HandleFunc("POST /sessions/{id}/custom", protect(s.withSession(s.customHandler)))
	mux.HandleFunc("POST /sessions/{id}/create", protect(s.withSession(s.createResumeHandler)))
	mux.HandleFunc("GET /sessions/{id}/export", protect(s.withSession(s.exportHandler)))

	return mux
}

// Handler returns the routed handler wrapped in HTTP instrumentation.
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()
	if s.Observability == nil {
		return mux
	}
	return s.Observability.HTTPMiddleware()(mux)
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "UNAUTHORIZED", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "UNAUTHORIZED", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
