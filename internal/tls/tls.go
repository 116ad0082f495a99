// Package tls builds the server TLS configuration for the control API,
// optionally generating a self-signed certificate on first use.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	tlsCaCrt = "tls_ca.crt"
	tlsCrt   = "tls.crt"
	tlsKey   = "tls.key"
)

// Options selects the certificate source. CertFile/KeyFile win over Dir.
type Options struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	Dir          string
	AutoGenerate bool
	MinVersion   string
	// Hosts are the DNS names and IPs put into a generated certificate.
	Hosts []string
}

func parseTLSVersion(ver string) (uint16, error) {
	switch strings.ToLower(strings.TrimSpace(ver)) {
	case "", "default", "1.2", "tls1.2":
		return tls.VersionTLS12, nil
	case "1.3", "tls1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported tls version %q", ver)
	}
}

// Setup returns nil, nil when TLS is disabled.
func Setup(o Options) (*tls.Config, error) {
	if !o.Enabled {
		return nil, nil
	}
	minVer, err := parseTLSVersion(o.MinVersion)
	if err != nil {
		return nil, err
	}

	if o.CertFile != "" && o.KeyFile != "" {
		return createTLSConfig(o.CertFile, o.KeyFile, minVer)
	}

	if o.Dir != "" {
		certPath := filepath.Join(o.Dir, tlsCrt)
		keyPath := filepath.Join(o.Dir, tlsKey)
		if o.AutoGenerate && !certificatesExist(certPath, keyPath) {
			if err := generate(o, certPath, keyPath); err != nil {
				return nil, fmt.Errorf("certificate generation failed: %w", err)
			}
		}
		return createTLSConfig(certPath, keyPath, minVer)
	}

	return nil, errors.New("tls enabled but neither cert_file/key_file nor dir is set")
}

// createTLSConfig loads the pair once to fail early, then reloads it per
// handshake so renewed files are picked up without a restart.
func createTLSConfig(certPath, keyPath string, minVer uint16) (*tls.Config, error) {
	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	return &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			c, err := tls.LoadX509KeyPair(certPath, keyPath)
			return &c, err
		},
		MinVersion: minVer,
	}, nil
}

func certificatesExist(certPath, keyPath string) bool {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	return certErr == nil && keyErr == nil
}

func generate(o Options, certPath, keyPath string) error {
	if err := os.MkdirAll(o.Dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", o.Dir, err)
	}
	hosts := o.Hosts
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1", "::1"}
	}
	return GenerateSelfSignedCert(CertConfig{
		CommonName:   hosts[0],
		Organization: "devterm",
		Hosts:        hosts,
		NotAfter:     time.Now().AddDate(1, 0, 0),
		CertPath:     certPath,
		KeyPath:      keyPath,
		CACertPath:   filepath.Join(o.Dir, tlsCaCrt),
	})
}
