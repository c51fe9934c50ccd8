package cli

import (
	"fmt"
	"time"

	"github.com/information-sharing-networks/https-app/internal/config"
	"github.com/information-sharing-networks/https-app/internal/devcert"
	"github.com/spf13/cobra"
)

func newGenCertCommand() *cobra.Command {
	var (
		keyPath  string
		certPath string
		hosts    []string
		validFor time.Duration
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "gen-cert",
		Short: "Generate a self-signed certificate for local development",
		Long: `Generate a self-signed ECDSA key pair for local development.

The files are written to HTTPS_KEY and HTTPS_CERT (certs/localhost.key and certs/localhost.crt
by default) unless --key and --cert are given. Existing files are kept unless --force is set.

Example:
  https-server gen-cert --host localhost --host 127.0.0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyPath == "" || certPath == "" {
				cfg, err := config.NewServerConfig()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				if keyPath == "" {
					keyPath = cfg.HTTPSKeyPath
				}
				if certPath == "" {
					certPath = cfg.HTTPSCertPath
				}
			}

			pair, err := devcert.Generate(hosts, validFor)
			if err != nil {
				return err
			}
			if err := pair.Write(keyPath, certPath, force); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "✓ Private key: %s\n", keyPath)
			printf(out, "✓ Certificate: %s (valid until %s)\n", certPath, pair.Certificate.NotAfter.Format(time.DateOnly))
			printf(out, "The certificate is self-signed: clients must trust it explicitly.\n")
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "Output path for the private key (default: HTTPS_KEY)")
	cmd.Flags().StringVarP(&certPath, "cert", "c", "", "Output path for the certificate (default: HTTPS_CERT)")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "Host name or IP address to include (repeatable, default: localhost, 127.0.0.1, ::1)")
	cmd.Flags().DurationVar(&validFor, "valid-for", devcert.DefaultValidity, "Certificate lifetime")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}
