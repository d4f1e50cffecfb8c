package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// newFakeVault serves sys/health and a fixed set of KV v2 secrets.
func newFakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true, "sealed": false, "standby": false, "version": "1.15.0",
			})
			return
		}
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		data, ok := secrets[r.URL.Path[len("/v1/"):]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := newFakeVault(t, map[string]map[string]any{
		"secret/data/atsopt/server": {"keys": "alpha, beta"},
		"secret/data/atsopt/ai":     {"api_key": "vault-gemini-key"},
	})

	cfg := &Config{}
	cfg.AI.Provider = ProviderGemini
	cfg.AI.Boost.APIKey = "explicit-boost-key"
	cfg.AI.Custom.Provider = ProviderOpenRouter
	cfg.Vault = VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   "test-token",
		Secrets: VaultSecrets{APIKeys: "secret/data/atsopt/server", AIKey: "secret/data/atsopt/ai"},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))

	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "vault-gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "vault-gemini-key", cfg.AI.Analyze.APIKey)
	assert.Equal(t, "explicit-boost-key", cfg.AI.Boost.APIKey)
	assert.Empty(t, cfg.AI.Custom.APIKey)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := newFakeVault(t, nil)

	cfg := &Config{Vault: VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   "test-token",
		Secrets: VaultSecrets{AIKey: "secret/data/missing"},
	}}

	err := ApplyVaultSecrets(cfg, newTestLogger())
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeConfig, appErr.Type)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
	assert.Empty(t, cfg.AI.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token", config: VaultConfig{Token: "inline"}, expected: "inline"},
		{name: "token file", config: VaultConfig{TokenFile: tokenFile}, expected: "file-token"},
		{name: "inline wins", config: VaultConfig{Token: "inline", TokenFile: tokenFile}, expected: "inline"},
		{name: "missing file", config: VaultConfig{TokenFile: filepath.Join(dir, "nope")}, expectError: true},
		{name: "nothing", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "float64", input: float64(42), expected: 42},
		{name: "string", input: "42", expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "bad string", input: "x", expectError: true},
		{name: "unsupported", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionValue(tt.input, "secret/data/x")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
