package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnvironDefaultsAndOverrides(t *testing.T) {
	tests := []struct {
		name        string
		environ     []string
		wantPort    int
		wantEnv     string
		wantKeyPath string
		wantCert    string
	}{
		{
			name:        "all unset",
			environ:     nil,
			wantPort:    3000,
			wantEnv:     "development",
			wantKeyPath: "certs/localhost.key",
			wantCert:    "certs/localhost.crt",
		},
		{
			name:        "all set",
			environ:     []string{"PORT=8443", "NODE_ENV=production", "HTTPS_KEY=k.pem", "HTTPS_CERT=c.pem"},
			wantPort:    8443,
			wantEnv:     "production",
			wantKeyPath: "k.pem",
			wantCert:    "c.pem",
		},
		{
			name:        "empty values fall back to defaults",
			environ:     []string{"PORT=", "NODE_ENV=", "HTTPS_KEY=", "HTTPS_CERT="},
			wantPort:    3000,
			wantEnv:     "development",
			wantKeyPath: "certs/localhost.key",
			wantCert:    "certs/localhost.crt",
		},
		{
			name:        "only key path set",
			environ:     []string{"HTTPS_KEY=missing.pem"},
			wantPort:    3000,
			wantEnv:     "development",
			wantKeyPath: "missing.pem",
			wantCert:    "certs/localhost.crt",
		},
		{
			name:        "unrelated variables are ignored",
			environ:     []string{"HOME=/root", "PATH=/usr/bin:/bin", "PORT=4000"},
			wantPort:    4000,
			wantEnv:     "development",
			wantKeyPath: "certs/localhost.key",
			wantCert:    "certs/localhost.crt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnviron(tt.environ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("Port: got %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.Environment != tt.wantEnv {
				t.Errorf("Environment: got %q, want %q", cfg.Environment, tt.wantEnv)
			}
			if cfg.HTTPSKeyPath != tt.wantKeyPath {
				t.Errorf("HTTPSKeyPath: got %q, want %q", cfg.HTTPSKeyPath, tt.wantKeyPath)
			}
			if cfg.HTTPSCertPath != tt.wantCert {
				t.Errorf("HTTPSCertPath: got %q, want %q", cfg.HTTPSCertPath, tt.wantCert)
			}
		})
	}
}

func TestFromEnvironAmbientDefaults(t *testing.T) {
	cfg, err := FromEnviron(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host: got %q", cfg.Host)
	}
	if cfg.ServerShutdownTimeout != 10*time.Second {
		t.Errorf("ServerShutdownTimeout: got %v", cfg.ServerShutdownTimeout)
	}
	if cfg.MaxRequestBody != 102400 {
		t.Errorf("MaxRequestBody: got %d", cfg.MaxRequestBody)
	}
	if cfg.URLEncodedParameterLimit != 1000 {
		t.Errorf("URLEncodedParameterLimit: got %d", cfg.URLEncodedParameterLimit)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS: got %d, want rate limiting disabled by default", cfg.RateLimitRPS)
	}
	if got := cfg.Address(); got != "0.0.0.0:3000" {
		t.Errorf("Address: got %q", got)
	}
}

func TestFromEnvironAcceptsAnyEnvironmentName(t *testing.T) {
	tests := []struct {
		nodeEnv        string
		wantProduction bool
	}{
		{"qa", false},
		{"local", false},
		{"dev", false},
		{"prod", false},
		{"staging", true},
		{"production", true},
	}

	for _, tt := range tests {
		t.Run(tt.nodeEnv, func(t *testing.T) {
			cfg, err := FromEnviron([]string{"NODE_ENV=" + tt.nodeEnv})
			if err != nil {
				t.Fatalf("NODE_ENV=%s rejected: %v", tt.nodeEnv, err)
			}
			if cfg.Environment != tt.nodeEnv {
				t.Errorf("Environment: got %q, want %q", cfg.Environment, tt.nodeEnv)
			}
			if cfg.IsProduction() != tt.wantProduction {
				t.Errorf("IsProduction: got %v, want %v", cfg.IsProduction(), tt.wantProduction)
			}
		})
	}
}

func TestFromEnvironValidation(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		wantErr string
	}{
		{"non numeric port", []string{"PORT=abc"}, "PORT"},
		{"port with suffix", []string{"PORT=3000tcp"}, "PORT"},
		{"port zero", []string{"PORT=0"}, "PORT"},
		{"port too large", []string{"PORT=70000"}, "PORT"},
		{"bad tls version", []string{"TLS_MIN_VERSION=1.0"}, "TLS_MIN_VERSION"},
		{"bad body limit", []string{"MAX_REQUEST_BODY=-1"}, "MAX_REQUEST_BODY"},
		{"bad parameter limit", []string{"URLENCODED_PARAMETER_LIMIT=0"}, "URLENCODED_PARAMETER_LIMIT"},
		{"rate limit without burst", []string{"RATE_LIMIT_RPS=10", "RATE_LIMIT_BURST=0"}, "RATE_LIMIT_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnviron(tt.environ)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewServerConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("PORT=4443\nNODE_ENV=test\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Chdir(dir)

	// register restore of the original values, then unset so the .env file is used
	for _, key := range []string{"PORT", "NODE_ENV", "HTTPS_KEY", "HTTPS_CERT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := NewServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4443 {
		t.Errorf("Port: got %d, want 4443", cfg.Port)
	}
	if cfg.Environment != "test" {
		t.Errorf("Environment: got %q, want test", cfg.Environment)
	}
}

func TestNewServerConfigProcessEnvWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("PORT=4443\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("PORT", "9443")

	cfg, err := NewServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9443 {
		t.Errorf("Port: got %d, want 9443", cfg.Port)
	}
}

func TestNewServerConfigWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "5443")

	cfg, err := NewServerConfig()
	if err != nil {
		t.Fatalf("missing .env should not be an error: %v", err)
	}
	if cfg.Port != 5443 {
		t.Errorf("Port: got %d, want 5443", cfg.Port)
	}
}
