package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// CertWatcher holds the server key pair and reloads it when the certificate
// or key file changes on disk.
type CertWatcher struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	cert     *tls.Certificate
	notAfter time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan chan struct{}
	running  bool

	reloads       int
	failures      int
	lastReload    time.Time
	lastReloadErr error

	onReload func(err error)
	logger   *errors.Logger
}

// NewCertWatcher loads the key pair once. Call Start to follow changes.
// onReload, if set, is called after every reload attempt.
func NewCertWatcher(certFile, keyFile string, debounceDelay time.Duration, onReload func(error), logger *errors.Logger) (*CertWatcher, error) {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	cw := &CertWatcher{
		certFile:      certFile,
		keyFile:       keyFile,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		onReload:      onReload,
		logger:        logger,
	}
	if err := cw.load(); err != nil {
		return nil, err
	}
	return cw, nil
}

// load reads and parses the key pair and swaps it in on success.
func (cw *CertWatcher) load() error {
	cert, err := tls.LoadX509KeyPair(cw.certFile, cw.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	cw.mu.Lock()
	cw.cert = &cert
	cw.notAfter = leaf.NotAfter
	cw.mu.Unlock()
	return nil
}

// GetCertificate serves the current key pair to tls.Config.
func (cw *CertWatcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.cert, nil
}

// Start begins watching the certificate directories.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Directories catch atomic replace-by-rename, which drops a file watch.
	dirs := map[string]bool{filepath.Dir(cw.certFile): true, filepath.Dir(cw.keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.fsWatcher = watcher
	cw.running = true
	go cw.watchLoop(watcher)

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.GetWatchedFiles(),
			"debounce_delay", cw.debounceDelay)
	}
	return nil
}

// Stop stops the certificate file watcher
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

func (cw *CertWatcher) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if cw.isWatchedEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.stopChan:
			return
		}
	}
}

func (cw *CertWatcher) isWatchedEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(cw.certFile) || name == filepath.Clean(cw.keyFile)
}

// scheduleReload coalesces bursts of events into one reload.
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, cw.Reload)
}

// Reload re-reads the key pair. On failure the previous pair stays in use.
func (cw *CertWatcher) Reload() {
	err := cw.load()

	cw.mu.Lock()
	cw.reloads++
	cw.lastReload = time.Now()
	cw.lastReloadErr = err
	if err != nil {
		cw.failures++
	}
	cw.mu.Unlock()

	if cw.logger != nil {
		if err != nil {
			cw.logger.LogError(err, "Failed to reload TLS certificates")
		} else {
			cw.logger.Info("TLS certificates reloaded successfully")
		}
	}
	if cw.onReload != nil {
		cw.onReload(err)
	}
}

// IsRunning returns whether the watcher is currently running
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}

// GetWatchedFiles returns the list of files being watched
func (cw *CertWatcher) GetWatchedFiles() []string {
	return []string{cw.certFile, cw.keyFile}
}

// Status describes certificate expiry and reload history for /health.
func (cw *CertWatcher) Status() map[string]any {
	cw.mu.RLock()
	defer cw.mu.RUnlock()

	timeToExpiry := time.Until(cw.notAfter)
	status := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"not_after":            cw.notAfter,
		"auto_reload": map[string]any{
			"running":       cw.running,
			"watched_files": []string{cw.certFile, cw.keyFile},
			"reload_count":  cw.reloads,
			"failure_count": cw.failures,
		},
	}
	if !cw.lastReload.IsZero() {
		status["last_reload_time"] = cw.lastReload
	}
	if cw.lastReloadErr != nil {
		status["last_reload_error"] = cw.lastReloadErr.Error()
	}

	switch {
	case timeToExpiry <= 0:
		status["healthy"], status["status"] = false, "expired"
	case timeToExpiry <= certCriticalThreshold:
		status["healthy"], status["status"] = false, "critical"
	case timeToExpiry <= certWarningThreshold:
		status["healthy"], status["status"] = true, "warning"
	default:
		status["healthy"], status["status"] = true, "ok"
	}
	return status
}
