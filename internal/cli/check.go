package cli

import (
	"github.com/information-sharing-networks/https-app/internal/bootstrap"
	"github.com/information-sharing-networks/https-app/internal/server"
	"github.com/spf13/cobra"
)

func newCheckCommand(registerRoutes server.RouteRegistrar) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and TLS credentials",
		Long: `Load the configuration, build the application and read the TLS key pair without opening a listener.

The exit status is the same one the server would use if it failed to start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Run(cmd.Context(), bootstrap.Options{
				LogOutput:      cmd.OutOrStdout(),
				RegisterRoutes: registerRoutes,
				CheckOnly:      true,
			})
		},
	}
}
