package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
	"github.com/TimurManjosov/flagship-eval/internal/client"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the service is ready",
	Long: `Call GET /readyz on the configured service and report whether the
flag store and cache are reachable.

Example:
  flagship status --profile prod`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cli.ResolveProfile(profile, cli.Overrides{BaseURL: baseURL})
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()

		if err := client.NewClient(p.BaseURL).Ready(ctx); err != nil {
			return fmt.Errorf("%s is not ready: %w", p.BaseURL, err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is ready\n", p.BaseURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "Request timeout")
}
