package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
	"github.com/TimurManjosov/flagship-eval/internal/client"
	"github.com/TimurManjosov/flagship-eval/internal/engine"
)

var (
	evalUserID  string
	evalContext []string
)

var evalCmd = &cobra.Command{
	Use:   "eval <flagKey>",
	Short: "Evaluate a flag against the running service",
	Long: `Evaluate a flag for a context by calling POST /api/v1/evaluate.

Context values are given as key=value pairs. Integers, floats and booleans
are sent as JSON numbers and booleans; everything else is sent as a string.

Examples:
  flagship eval checkout --project demo --environment prod --user-id user-1
  flagship eval checkout --context country=US --context plan=pro
  flagship eval checkout --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagKey := args[0]

		p, err := cli.ResolveProfile(profile, cli.Overrides{
			BaseURL:     baseURL,
			ProjectID:   projectID,
			Environment: environment,
		})
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if p.ProjectID == "" || p.Environment == "" {
			return fmt.Errorf("project and environment are required (flags, env vars, or profile)")
		}

		evalCtx, err := parseContextPairs(evalContext)
		if err != nil {
			return err
		}
		if evalUserID != "" {
			evalCtx[engine.UserIDField] = evalUserID
		}

		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Evaluating %s/%s/%s at %s\n", p.ProjectID, p.Environment, flagKey, p.BaseURL)
		}

		c := client.NewClient(p.BaseURL)
		resp, err := c.Evaluate(context.Background(), client.EvaluateRequest{
			ProjectID:   p.ProjectID,
			Environment: p.Environment,
			FlagKey:     flagKey,
			Context:     evalCtx,
		})
		if err != nil {
			return fmt.Errorf("failed to evaluate flag: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintEvaluation(cmd.OutOrStdout(), cli.EvaluationRow{
			FlagKey: flagKey,
			Enabled: resp.Enabled,
			Variant: resp.Variant,
		}, cli.OutputFormat(format))
	},
}

// parseContextPairs turns ["k=v", ...] into a context map, inferring scalar types.
func parseContextPairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid context pair %q, expected key=value", pair)
		}
		out[k] = inferScalar(v)
	}
	return out, nil
}

func inferScalar(v string) any {
	if i, err := cast.ToInt64E(v); err == nil && cast.ToString(i) == v {
		return i
	}
	if f, err := cast.ToFloat64E(v); err == nil && strings.ContainsAny(v, ".eE") {
		return f
	}
	if v == "true" || v == "false" {
		return v == "true"
	}
	return v
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalUserID, "user-id", "", "User ID used for bucketing (sets context.userId)")
	evalCmd.Flags().StringArrayVar(&evalContext, "context", nil, "Context attribute as key=value (repeatable)")
}
