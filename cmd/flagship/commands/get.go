package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a flag definition",
	Long: `Show the stored definition of a flag: rules in evaluation order and
variants with their weights.

Examples:
  flagship get checkout --project demo
  flagship get checkout --project demo --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
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

		flag, err := st.FindFlag(ctx, project, key)
		if errors.Is(err, store.ErrFlagNotFound) {
			return fmt.Errorf("flag '%s' not found in project '%s'", key, project)
		}
		if err != nil {
			return fmt.Errorf("failed to get flag: %w", err)
		}

		if !quiet {
			return cli.PrintFlag(cmd.OutOrStdout(), flag, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
