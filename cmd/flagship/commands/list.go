package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List flag definitions of a project",
	Long: `List all flag definitions of a project from the durable store.

Examples:
  flagship list --project demo
  flagship list --project demo --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := requireProject()
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, _, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer st.Close()

		flags, err := st.ListFlags(ctx, project)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		if !quiet {
			if len(flags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No flags found")
				return nil
			}
			return cli.PrintFlags(cmd.OutOrStdout(), flags, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
