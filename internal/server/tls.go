package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"careerai/internal/config"
	"careerai/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const certReloadDebounce = time.Second

// buildTLSConfig returns nil when TLS is disabled
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	mode := s.TLSConfig.Mode
	if mode == "" || mode == "disabled" {
		return nil, nil
	}

	certs, err := newCertStore(s.TLSConfig, s.Logger)
	if err != nil {
		return nil, err
	}
	s.certs = certs

	tlsConfig := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: certs.GetCertificate,
	}
	if s.TLSConfig.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if mode == "mutual" {
		pool, err := loadCACertificatePool(s.TLSConfig)
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	}

	return tlsConfig, nil
}

func loadCACertificatePool(cfg config.TLSConfig) (*x509.CertPool, error) {
	caCert := []byte(cfg.CAContent)
	if len(caCert) == 0 {
		var err error
		if caCert, err = os.ReadFile(cfg.CAFile); err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// certStore holds the current server certificate. File-based certificates
// can be reloaded in place while the server runs.
type certStore struct {
	mu       sync.RWMutex
	cfg      config.TLSConfig
	cert     *tls.Certificate
	expiry   time.Time
	watching bool

	reloads  int
	failures int
	lastErr  string

	logger *errors.Logger
}

func newCertStore(cfg config.TLSConfig, logger *errors.Logger) (*certStore, error) {
	cs := &certStore{cfg: cfg, logger: logger}
	if err := cs.load(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *certStore) load() error {
	var cert tls.Certificate
	var err error
	if cs.cfg.CertContent != "" {
		cert, err = tls.X509KeyPair([]byte(cs.cfg.CertContent), []byte(cs.cfg.KeyContent))
	} else {
		cert, err = tls.LoadX509KeyPair(cs.cfg.CertFile, cs.cfg.KeyFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load server cert/key: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	cs.mu.Lock()
	cs.cert = &cert
	cs.expiry = leaf.NotAfter
	cs.mu.Unlock()
	return nil
}

// GetCertificate satisfies tls.Config.GetCertificate.
func (cs *certStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cert, nil
}

func (cs *certStore) Expiry() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.expiry
}

func (cs *certStore) Watching() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.watching
}

func (cs *certStore) Stats() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return map[string]any{
		"reload_count":      cs.reloads,
		"reload_failures":   cs.failures,
		"last_reload_error": cs.lastErr,
	}
}

// reload keeps the previous certificate when the new pair does not load.
func (cs *certStore) reload() {
	err := cs.load()

	cs.mu.Lock()
	cs.reloads++
	if err != nil {
		cs.failures++
		cs.lastErr = err.Error()
	} else {
		cs.lastErr = ""
	}
	cs.mu.Unlock()

	if err != nil {
		cs.logger.LogError(err, "Certificate reload failed, keeping previous certificate")
		return
	}
	cs.logger.Info("Certificate reloaded", "expires", cs.Expiry().Format(time.RFC3339))
}

// Watch reloads on writes to the certificate or key file until ctx ends.
// Certificates loaded from content are never watched.
func (cs *certStore) Watch(ctx context.Context) error {
	if cs.cfg.CertFile == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			cs.logger.LogError(err, "Failed to close certificate watcher")
		}
	}()

	// Watch directories so atomic rename-based rotations are seen.
	watched := map[string]bool{}
	for _, file := range []string{cs.cfg.CertFile, cs.cfg.KeyFile} {
		dir := filepath.Dir(file)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	cs.mu.Lock()
	cs.watching = true
	cs.mu.Unlock()
	defer func() {
		cs.mu.Lock()
		cs.watching = false
		cs.mu.Unlock()
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !cs.isCertEvent(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(certReloadDebounce, cs.reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cs.logger.LogError(err, "Certificate watcher error")
		}
	}
}

func (cs *certStore) isCertEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(cs.cfg.CertFile) || name == filepath.Clean(cs.cfg.KeyFile)
}
