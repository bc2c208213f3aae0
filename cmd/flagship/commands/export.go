package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
)

var (
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export flag definitions to a seed file",
	Long: `Export all flag definitions of a project in the format read by
"flagship seed". YAML unless --format json.

Examples:
  flagship export --project demo --output flags.yaml
  flagship export --project demo --format json > flags.json`,
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

		// Determine output destination
		var output io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			output = f
		}

		if err := cli.EncodeSeedFile(output, cli.NewSeedFile(project, flags), cli.OutputFormat(format)); err != nil {
			return fmt.Errorf("failed to encode flags: %w", err)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Successfully exported %d flag(s) to %s\n", len(flags), exportOutput)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
