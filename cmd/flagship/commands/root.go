package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/flagship-eval/internal/cli"
)

var (
	// Global flags
	profile     string
	baseURL     string
	projectID   string
	environment string
	format      string
	quiet       bool
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flagship",
	Short: "CLI tool for evaluating and managing feature flags",
	Long: `Flagship is a command-line tool for the flag evaluation service.

It evaluates flags against a running service, computes bucket assignments
offline, and loads or inspects flag definitions in the durable store.

Examples:
  flagship eval checkout --project demo --environment prod --user-id user-1
  flagship bucket checkout user-1 user-2 --variants A=3000,B=7000
  flagship seed flags.yaml --project demo
  flagship list --project demo
  flagship migrate`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile (defaults to default_profile)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the flagship API")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project ID")
	rootCmd.PersistentFlags().StringVar(&environment, "environment", "", "Environment key (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// resolveProject returns the project from --project, FLAGSHIP_PROJECT or the
// active profile, in that order. It does not require a base URL.
func resolveProject() string {
	if projectID != "" {
		return projectID
	}
	if v := os.Getenv("FLAGSHIP_PROJECT"); v != "" {
		return v
	}
	cfg, err := cli.LoadConfig()
	if err != nil {
		return ""
	}
	name := profile
	if name == "" {
		name = cfg.DefaultProfile
	}
	return cfg.Profiles[name].ProjectID
}
