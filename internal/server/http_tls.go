package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil
	case "server":
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", s.TLSConfig.Mode)
	}
}

// buildTLSConfig loads the key pair through a CertWatcher so that the
// certificate can be swapped without a restart.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	watcher, err := NewCertWatcher(
		s.TLSConfig.CertFile,
		s.TLSConfig.KeyFile,
		s.TLSConfig.AutoReload.DebounceDelay,
		func(err error) { s.Observability.RecordCertReload(context.Background(), err) },
		s.Logger,
	)
	if err != nil {
		return nil, err
	}

	if s.TLSConfig.AutoReload.Enabled {
		if err := watcher.Start(); err != nil {
			return nil, fmt.Errorf("failed to start certificate watcher: %w", err)
		}
	}
	s.CertWatcher = watcher

	return &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: watcher.GetCertificate,
	}, nil
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
