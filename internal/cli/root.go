package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/information-sharing-networks/https-app/internal/bootstrap"
	"github.com/information-sharing-networks/https-app/internal/server"
	"github.com/information-sharing-networks/https-app/internal/version"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the https-server command tree.
//
// Running the root command starts the server with registerRoutes as the route collaborator.
func NewRootCommand(registerRoutes server.RouteRegistrar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "https-server",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "HTTPS application server",
		Long: `https-server serves the application over TLS.

Configuration is read from the environment (and a .env file in the working directory):
  PORT        listening port (default 3000)
  NODE_ENV    environment name, staging and production enable JSON logs and HSTS (default development)
  HTTPS_KEY   path to the PEM private key (default certs/localhost.key)
  HTTPS_CERT  path to the PEM certificate (default certs/localhost.crt)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return bootstrap.Run(ctx, bootstrap.Options{
				RegisterRoutes: registerRoutes,
			})
		},
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	rootCmd.AddCommand(newCheckCommand(registerRoutes))
	rootCmd.AddCommand(newGenCertCommand())

	return rootCmd
}

// Execute runs the command tree and exits the process with the status for the error, if any.
func Execute(registerRoutes server.RouteRegistrar) {
	cmd := NewRootCommand(registerRoutes)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "https-server: %v\n", err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps a command error to a process exit status.
//
// Startup failures use the code of the phase that failed, anything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var startupErr *bootstrap.StartupError
	if errors.As(err, &startupErr) {
		return startupErr.ExitCode()
	}
	return 1
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
