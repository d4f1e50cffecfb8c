package server

import (
	"fmt"
	"net/http"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(httpServer *http.Server) {
	scheme := "http"
	if httpServer.TLSConfig != nil {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s\n", scheme, httpServer.Addr)

	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                         - Model health check")
	fmt.Println("  GET    /stats                          - Server statistics")
	fmt.Println("  POST   /sessions                       - Create a session")
	fmt.Println("  GET    /sessions/{id}                  - Session state")
	fmt.Println("  DELETE /sessions/{id}                  - Discard a session")
	fmt.Println("  POST   /sessions/{id}/resume           - Upload resume (multipart 'file')")
	fmt.Println("  POST   /sessions/{id}/job-description  - Upload or paste job description")
	fmt.Println("  POST   /sessions/{id}/analyze          - ATS analysis")
	fmt.Println("  POST   /sessions/{id}/boost            - Boost resume and re-score")
	fmt.Println("  POST   /sessions/{id}/custom           - Apply custom instructions")
	fmt.Println("  POST   /sessions/{id}/create           - Create resume from form (JSON)")
	fmt.Println("  GET    /sessions/{id}/export           - Download ?doc=&format=")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /sessions")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
	if s.TLSConfig.AutoReload.Enabled && s.TLSConfig.Mode == "server" {
		fmt.Println("TLS auto-reload: ENABLED")
	}
}
