// Package tlsconfig loads client TLS settings from PEM files for the HTTP
// and gRPC builders.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrIncompleteKeyPair is returned when only one of the client certificate
// and key is given.
var ErrIncompleteKeyPair = errors.New("both TLS cert and key files must be provided for mTLS")

// Files names the PEM files and verification options of a client TLS setup.
// The zero value yields TLS 1.2+ against the system roots.
type Files struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Load reads the configured files and returns a *tls.Config with a minimum
// version of TLS 1.2.
//
// Returns:
//   - *tls.Config: RootCAs set only when CAFile is given, Certificates only
//     for a complete cert/key pair
//   - error: unreadable or unparsable files, or ErrIncompleteKeyPair
func (f Files) Load() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: f.InsecureSkipVerify, // #nosec G402
		ServerName:         f.ServerName,
	}

	if f.CAFile != "" {
		pem, err := os.ReadFile(f.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("failed to parse CA certificate")
		}
		cfg.RootCAs = pool
	}

	switch {
	case f.CertFile != "" && f.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	case f.CertFile != "" || f.KeyFile != "":
		return nil, ErrIncompleteKeyPair
	}

	return cfg, nil
}
