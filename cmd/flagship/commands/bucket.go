package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/rollout"
	"github.com/TimurManjosov/flagship-eval/internal/store"
	"github.com/TimurManjosov/flagship-eval/internal/validation"
)

var (
	bucketVariants string
	bucketHash     string
)

var bucketCmd = &cobra.Command{
	Use:   "bucket <flagKey> [userId...]",
	Short: "Compute bucket and variant assignments offline",
	Long: `Compute the bucket (0-9999) and, when --variants is given, the variant
each user would be assigned for a flag. No service or store is contacted.
Without user IDs the anonymous user is shown.

Examples:
  flagship bucket checkout user-1 user-42 --variants A=3000,B=7000
  flagship bucket checkout --hash xxhash`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagKey := args[0]
		users := args[1:]

		hasher, err := rollout.HasherByName(bucketHash)
		if err != nil {
			return err
		}
		variants, err := cli.ParseVariants(bucketVariants)
		if err != nil {
			return err
		}
		if result := validation.ValidateVariants(variants); !result.Valid {
			return fmt.Errorf("invalid variants: %s", result.Errors["variants"])
		}

		flag := &store.Flag{Key: flagKey, Variants: variants}
		evaluator := engine.NewEvaluator(hasher)

		var evalCtxs []engine.Context
		if len(users) == 0 {
			evalCtxs = append(evalCtxs, engine.Context{})
		}
		for _, u := range users {
			evalCtxs = append(evalCtxs, engine.Context{engine.UserIDField: u})
		}

		rows := make([]cli.BucketRow, 0, len(evalCtxs))
		for _, c := range evalCtxs {
			userID := c.UserID(rollout.AnonymousUser)
			res := evaluator.Evaluate(flag, c)
			rows = append(rows, cli.BucketRow{
				UserID:  userID,
				Seed:    rollout.Seed(flagKey, userID),
				Bucket:  res.Bucket,
				Variant: res.Variant,
			})
		}

		if quiet {
			return nil
		}
		return cli.PrintBuckets(cmd.OutOrStdout(), rows, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(bucketCmd)

	bucketCmd.Flags().StringVar(&bucketVariants, "variants", "", "Ordered variants as key=weight,... (e.g. A=3000,B=7000)")
	bucketCmd.Flags().StringVar(&bucketHash, "hash", rollout.HashSHA1, "Bucket hash (sha1, xxhash)")
}
