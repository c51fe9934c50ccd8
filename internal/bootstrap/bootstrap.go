// Package bootstrap runs the startup sequence of the HTTPS server:
//
//	UNSTARTED -> CONFIG_LOADED -> APP_BUILT -> CREDENTIALS_LOADED -> LISTENING
//
// Every step before LISTENING is fatal: Run returns a *StartupError naming the phase that
// could not be reached and the variable or file responsible, and the caller exits with
// StartupError.ExitCode(). There is no retry.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/information-sharing-networks/https-app/internal/config"
	"github.com/information-sharing-networks/https-app/internal/logger"
	"github.com/information-sharing-networks/https-app/internal/server"
	"github.com/information-sharing-networks/https-app/internal/version"
)

// Phase is a state of the startup sequence.
type Phase int

const (
	Unstarted Phase = iota
	ConfigLoaded
	AppBuilt
	CredentialsLoaded
	Listening
)

func (p Phase) String() string {
	switch p {
	case Unstarted:
		return "UNSTARTED"
	case ConfigLoaded:
		return "CONFIG_LOADED"
	case AppBuilt:
		return "APP_BUILT"
	case CredentialsLoaded:
		return "CREDENTIALS_LOADED"
	case Listening:
		return "LISTENING"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Exit codes used for startup failures, one per phase.
const (
	ExitConfig      = 2
	ExitApp         = 3
	ExitCredentials = 4
	ExitListen      = 5
)

// StartupError is a fatal error raised before the server is listening.
type StartupError struct {
	// Phase is the phase that could not be reached
	Phase Phase

	// Subject is the environment variable or file that caused the failure, when known
	Subject string

	Err error
}

func (e *StartupError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("startup failed before %s (%s): %v", e.Phase, e.Subject, e.Err)
	}
	return fmt.Sprintf("startup failed before %s: %v", e.Phase, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// ExitCode is the process exit status for the failed phase.
func (e *StartupError) ExitCode() int {
	switch e.Phase {
	case ConfigLoaded:
		return ExitConfig
	case AppBuilt:
		return ExitApp
	case CredentialsLoaded:
		return ExitCredentials
	default:
		return ExitListen
	}
}

type Options struct {
	// Environ is used instead of the .env file and process environment when not nil (os.Environ format)
	Environ []string

	// LogOutput receives the application logs. When nil the logs go to stdout
	// and the logger becomes the slog default.
	LogOutput io.Writer

	// RegisterRoutes is the route collaborator
	RegisterRoutes server.RouteRegistrar

	// CheckOnly stops after CREDENTIALS_LOADED without binding a listener
	CheckOnly bool
}

// Prepared is the result of Prepare: a configured server that has not been started.
type Prepared struct {
	Config *config.ServerEnvironment
	Logger *slog.Logger
	Server *server.Server
}

// Prepare loads the configuration and builds the application (CONFIG_LOADED, APP_BUILT).
//
// Use it directly to embed the application without a listener (Prepared.Server.Handler).
func Prepare(opts Options) (*Prepared, error) {
	cfg, err := loadConfig(opts.Environ)
	if err != nil {
		return nil, &StartupError{Phase: ConfigLoaded, Subject: "environment", Err: err}
	}

	var appLogger *slog.Logger
	if opts.LogOutput == nil {
		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	} else {
		appLogger = logger.New(opts.LogOutput, logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	}

	appLogger.Info("Configuration loaded",
		slog.String("NODE_ENV", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("HTTPS_KEY", cfg.HTTPSKeyPath),
		slog.String("HTTPS_CERT", cfg.HTTPSCertPath),
		slog.String("TLS_MIN_VERSION", cfg.TLSMinVersion),
	)

	srv, err := server.NewServer(cfg, appLogger, opts.RegisterRoutes)
	if err != nil {
		appLogger.Error("Failed to build application", slog.String("error", err.Error()))
		return nil, &StartupError{Phase: AppBuilt, Subject: "routes", Err: err}
	}
	appLogger.Debug("bootstrap phase reached", slog.String("phase", AppBuilt.String()))

	return &Prepared{Config: cfg, Logger: appLogger, Server: srv}, nil
}

// Run executes the whole startup sequence and serves until ctx is cancelled.
//
// Errors returned before the server is listening are *StartupError.
// With CheckOnly set Run returns nil once the credentials have been loaded.
func Run(ctx context.Context, opts Options) error {
	p, err := Prepare(opts)
	if err != nil {
		return err
	}

	cert, err := server.LoadCredentials(p.Config.HTTPSKeyPath, p.Config.HTTPSCertPath)
	if err != nil {
		subject := ""
		var credErr *server.CredentialError
		if errors.As(err, &credErr) {
			subject = credErr.Path
		}
		p.Logger.Error("Failed to load TLS credentials", slog.String("error", err.Error()))
		return &StartupError{Phase: CredentialsLoaded, Subject: subject, Err: err}
	}
	p.Logger.Debug("bootstrap phase reached", slog.String("phase", CredentialsLoaded.String()))

	if opts.CheckOnly {
		p.Logger.Info("configuration and TLS credentials are valid")
		return nil
	}

	ln, err := p.Server.Listen(cert)
	if err != nil {
		p.Logger.Error("Failed to bind listener", slog.String("error", err.Error()))
		return &StartupError{Phase: Listening, Subject: p.Config.Address(), Err: err}
	}

	p.Logger.Info("Starting server", slog.String("version", version.Get().Version))

	if err := p.Server.Serve(ctx, ln); err != nil {
		p.Logger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	p.Logger.Info("server shutdown complete")
	return nil
}

func loadConfig(environ []string) (*config.ServerEnvironment, error) {
	if environ == nil {
		return config.NewServerConfig()
	}
	return config.FromEnviron(environ)
}
