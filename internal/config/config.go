package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// https server settings
	Environment   string `env:"NODE_ENV,default=development"`
	Host          string `env:"HOST,default=0.0.0.0"`
	Port          int    `env:"PORT,default=3000"`
	HTTPSKeyPath  string `env:"HTTPS_KEY,default=certs/localhost.key"`
	HTTPSCertPath string `env:"HTTPS_CERT,default=certs/localhost.crt"`
	TLSMinVersion string `env:"TLS_MIN_VERSION,default=1.2"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`

	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	ReadHeaderTimeout     time.Duration `env:"READ_HEADER_TIMEOUT,default=5s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`

	// request limits
	MaxRequestBody           int64 `env:"MAX_REQUEST_BODY,default=102400"`
	URLEncodedParameterLimit int   `env:"URLENCODED_PARAMETER_LIMIT,default=1000"`
	RateLimitRPS             int32 `env:"RATE_LIMIT_RPS,default=0"`
	RateLimitBurst           int32 `env:"RATE_LIMIT_BURST,default=50"`
}

// DotEnvFile is loaded by NewServerConfig before the process environment is read.
const DotEnvFile = ".env"

// NewServerConfig loads the .env file (if there is one) and the process environment
// and returns a ServerEnvironment struct that contains the values.
//
// Variables already set in the process environment take precedence over the .env file.
func NewServerConfig() (*ServerEnvironment, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	return FromEnviron(os.Environ())
}

// FromEnviron builds a ServerEnvironment from a list of KEY=value strings (the os.Environ format).
//
// A variable that is unset or set to the empty string gets its default value.
func FromEnviron(environ []string) (*ServerEnvironment, error) {
	es, err := env.EnvironToEnvSet(environ)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	for key, value := range es {
		if value == "" {
			delete(es, key)
		}
	}

	// go-env reports a non-numeric PORT as a bare strconv error, check it first so the message names the variable
	if port, ok := es["PORT"]; ok {
		if _, err := strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("PORT must be an integer, got %q", port)
		}
	}

	var cfg ServerEnvironment
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Address is the host:port the server binds to.
func (c *ServerEnvironment) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the environment should get production hardening (JSON logs, HSTS).
// NODE_ENV is free form; names other than production and staging get development behaviour.
func (c *ServerEnvironment) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}

// validateConfig checks the loaded values
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.TLSMinVersion != "1.2" && cfg.TLSMinVersion != "1.3" {
		return fmt.Errorf("TLS_MIN_VERSION must be 1.2 or 1.3, got %s", cfg.TLSMinVersion)
	}
	if cfg.MaxRequestBody < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY must be at least 1")
	}
	if cfg.URLEncodedParameterLimit < 1 {
		return fmt.Errorf("URLENCODED_PARAMETER_LIMIT must be at least 1")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}
