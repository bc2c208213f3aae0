package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
	"github.com/TimurManjosov/flagship-eval/internal/validation"
)

var (
	seedDryRun bool
	seedForce  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load flag definitions into the durable store",
	Long: `Load flag definitions from a YAML or JSON file into the durable store
configured by STORE_TYPE and DB_DSN. Existing flags with the same key are
replaced, including their rules and variants. Migrations are applied first.

Cached copies in the evaluation service expire within CACHE_TTL.

Examples:
  flagship seed flags.yaml
  flagship seed flags.yaml --project demo --dry-run
  flagship seed flags.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		sf, err := cli.ReadSeedFile(args[0])
		if err != nil {
			return err
		}
		params, err := sf.UpsertParams(projectID)
		if err != nil {
			return err
		}

		if verbose {
			fmt.Fprintf(out, "Found %d flag(s) for project %s\n", len(params), params[0].ProjectID)
		}

		invalid := 0
		for _, p := range params {
			if result := validation.ValidateFlag(p); !result.Valid {
				invalid++
				fmt.Fprintf(cmd.ErrOrStderr(), "Invalid flag '%s': %s\n", p.Key, formatFieldErrors(result.Errors))
			}
		}
		if invalid > 0 && !seedForce {
			return fmt.Errorf("%d invalid flag(s), use --force to load the valid ones", invalid)
		}

		if seedDryRun {
			fmt.Fprintln(out, "Dry run mode - the following flags would be loaded:")
			for _, p := range params {
				fmt.Fprintf(out, "  - %s (rules: %d, variants: %s)\n", p.Key, len(p.Rules), cli.FormatVariants(p.Variants))
			}
			return nil
		}

		ctx := context.Background()
		st, _, err := openStore(ctx, true)
		if err != nil {
			return err
		}
		defer st.Close()

		successCount, errorCount := 0, 0
		for _, p := range params {
			if result := validation.ValidateFlag(p); !result.Valid {
				errorCount++
				continue
			}
			if verbose {
				fmt.Fprintf(out, "Loading flag: %s\n", p.Key)
			}
			if err := st.UpsertFlag(ctx, p); err != nil {
				errorCount++
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load flag '%s': %v\n", p.Key, err)
				if !seedForce {
					return fmt.Errorf("seed failed, use --force to continue on errors")
				}
				continue
			}
			successCount++
		}

		if !quiet {
			fmt.Fprintf(out, "Seed complete: %d succeeded, %d failed\n", successCount, errorCount)
		}
		if errorCount > 0 && !seedForce {
			return fmt.Errorf("seed completed with errors")
		}
		return nil
	},
}

func formatFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Validate without loading")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Continue on errors")
}
