package server

import (
	"crypto/tls"
	"fmt"
	"os"
)

// CredentialKind identifies which part of the TLS credential pair failed to load.
type CredentialKind string

const (
	CredentialKey  CredentialKind = "private key"
	CredentialCert CredentialKind = "certificate"
	CredentialPair CredentialKind = "key pair"
)

// CredentialError reports a TLS credential that could not be loaded.
// It names the file but never includes the file contents.
type CredentialError struct {
	Kind CredentialKind
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to load TLS %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// LoadCredentials reads the PEM encoded private key and certificate and returns the parsed key pair.
//
// The raw file contents are wiped once the pair has been parsed.
func LoadCredentials(keyPath, certPath string) (tls.Certificate, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return tls.Certificate{}, &CredentialError{Kind: CredentialKey, Path: keyPath, Err: err}
	}
	defer clear(keyPEM)

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, &CredentialError{Kind: CredentialCert, Path: certPath, Err: err}
	}
	defer clear(certPEM)

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, &CredentialError{
			Kind: CredentialPair,
			Path: fmt.Sprintf("%s, %s", keyPath, certPath),
			Err:  err,
		}
	}
	return cert, nil
}

// tlsVersion maps the TLS_MIN_VERSION setting to the crypto/tls constant.
func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
