package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeKeyPair writes a self-signed certificate valid for validFor.
func writeKeyPair(t *testing.T, dir string, validFor time.Duration) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(validFor),
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestCertWatcherStatus(t *testing.T) {
	tests := []struct {
		name        string
		validFor    time.Duration
		wantStatus  string
		wantHealthy bool
	}{
		{"ok", 90 * 24 * time.Hour, "ok", true},
		{"warning", 3 * 24 * time.Hour, "warning", true},
		{"critical", 2 * time.Hour, "critical", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certFile, keyFile := writeKeyPair(t, t.TempDir(), tt.validFor)
			cw, err := NewCertWatcher(certFile, keyFile, 0, nil, testLogger)
			require.NoError(t, err)

			status := cw.Status()
			assert.Equal(t, tt.wantStatus, status["status"])
			assert.Equal(t, tt.wantHealthy, status["healthy"])
		})
	}
}

func TestCertWatcherReloadKeepsCertificateOnFailure(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, 24*365*time.Hour)

	var calls atomic.Int32
	var lastErr atomic.Value
	cw, err := NewCertWatcher(certFile, keyFile, 0, func(err error) {
		calls.Add(1)
		if err != nil {
			lastErr.Store(err)
		}
	}, testLogger)
	require.NoError(t, err)

	before, err := cw.GetCertificate(nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(certFile, []byte("not a certificate"), 0o600))
	cw.Reload()

	after, err := cw.GetCertificate(nil)
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotNil(t, lastErr.Load())

	writeKeyPair(t, dir, 24*365*time.Hour)
	cw.Reload()
	after, err = cw.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	status := cw.Status()
	reload := status["auto_reload"].(map[string]any)
	assert.Equal(t, 2, reload["reload_count"])
	assert.Equal(t, 1, reload["failure_count"])
}

func TestCertWatcherPicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, 24*365*time.Hour)

	reloaded := make(chan error, 16)
	cw, err := NewCertWatcher(certFile, keyFile, 20*time.Millisecond, func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	}, testLogger)
	require.NoError(t, err)
	require.NoError(t, cw.Start())
	defer func() { require.NoError(t, cw.Stop()) }()
	assert.True(t, cw.IsRunning())

	writeKeyPair(t, dir, 24*365*time.Hour)

	// the cert and key are written separately, so an intermediate reload may fail
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-reloaded:
			if err == nil {
				return
			}
		case <-deadline:
			t.Fatal("certificate change was not detected")
		}
	}
}

func TestNewCertWatcherMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCertWatcher(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"), 0, nil, nil)
	assert.Error(t, err)
}
