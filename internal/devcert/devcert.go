// Package devcert generates self-signed TLS credentials for local development.
//
// The key is ECDSA P-256 saved as PKCS#8 PEM (https://datatracker.ietf.org/doc/html/rfc5208).
// The certificate covers localhost, 127.0.0.1 and ::1 and is its own issuer, so clients
// have to be told to trust it explicitly.
package devcert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// DefaultValidity is the lifetime of generated certificates when none is given.
const DefaultValidity = 365 * 24 * time.Hour

// Pair is a PEM encoded private key and the self-signed certificate for it.
type Pair struct {
	KeyPEM  []byte
	CertPEM []byte

	// Certificate is the parsed certificate
	Certificate *x509.Certificate
}

// Generate creates a new key and a certificate valid for hosts (names or IP addresses).
//
// When hosts is empty the certificate is issued for localhost, 127.0.0.1 and ::1.
func Generate(hosts []string, validFor time.Duration) (*Pair, error) {
	if validFor <= 0 {
		validFor = DefaultValidity
	}
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1", "::1"}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: hosts[0], Organization: []string{"https-server development"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return &Pair{
		KeyPEM:      pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		CertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		Certificate: cert,
	}, nil
}

// ErrExists is returned by Write when a target file is present and overwrite is false.
var ErrExists = errors.New("credential file already exists")

// Write saves the key (mode 0600) and certificate (mode 0644), creating parent directories as needed.
func (p *Pair) Write(keyPath, certPath string, overwrite bool) error {
	if !overwrite {
		for _, path := range []string{keyPath, certPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s: %w", path, ErrExists)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
		}
	}

	if err := writeFile(keyPath, p.KeyPEM, 0600); err != nil {
		return err
	}
	return writeFile(certPath, p.CertPEM, 0644)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", dir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filepath.Base(path), data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
