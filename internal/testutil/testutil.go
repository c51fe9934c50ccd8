// Package testutil contains helpers shared by the server and bootstrap tests:
// throwaway TLS credentials, free ports and a client that trusts the test certificate.
package testutil

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/https-app/internal/devcert"
)

// Credentials are the paths of a self-signed key pair written by WriteSelfSignedPair.
type Credentials struct {
	KeyPath  string
	CertPath string

	// Pool trusts the certificate, for use by test clients
	Pool *x509.CertPool
}

// WriteSelfSignedPair writes a PEM key and certificate for localhost to dir.
func WriteSelfSignedPair(t *testing.T, dir, keyName, certName string) Credentials {
	t.Helper()

	pair, err := devcert.Generate(nil, 24*time.Hour)
	if err != nil {
		t.Fatalf("failed to generate credentials: %v", err)
	}

	creds := Credentials{
		KeyPath:  filepath.Join(dir, keyName),
		CertPath: filepath.Join(dir, certName),
		Pool:     x509.NewCertPool(),
	}
	creds.Pool.AddCert(pair.Certificate)

	if err := pair.Write(creds.KeyPath, creds.CertPath, true); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}

	return creds
}

// FindFreePort returns a TCP port that was free when the function ran.
func FindFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

// TLSClient returns an HTTP client that trusts only pool.
func TLSClient(pool *x509.CertPool) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		},
	}
}

// WaitForServer polls url until it answers 200 or the timeout expires.
func WaitForServer(t *testing.T, client *http.Client, url string, timeout time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

// SyncBuffer is a bytes buffer safe to use as a log destination while the server goroutines write to it.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
