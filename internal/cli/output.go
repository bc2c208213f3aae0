package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/flagship-eval/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// EvaluationRow is one evaluated flag as shown by `flagship eval`.
type EvaluationRow struct {
	FlagKey string `json:"flagKey" yaml:"flagKey"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// BucketRow is one offline bucketing result as shown by `flagship bucket`.
type BucketRow struct {
	UserID  string `json:"userId" yaml:"userId"`
	Seed    string `json:"seed" yaml:"seed"`
	Bucket  int    `json:"bucket" yaml:"bucket"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// PrintFlags outputs flags in the specified format
func PrintFlags(w io.Writer, flags []store.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]store.Flag{"flags": flags})
	case FormatYAML:
		return printYAML(w, map[string][]store.Flag{"flags": flags})
	case FormatTable:
		return printFlagTable(w, flags)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFlag outputs a single flag in the specified format
func PrintFlag(w io.Writer, flag *store.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, flag)
	case FormatYAML:
		return printYAML(w, flag)
	case FormatTable:
		return printFlagTable(w, []store.Flag{*flag})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintEvaluation outputs an evaluation result in the specified format
func PrintEvaluation(w io.Writer, row EvaluationRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, row)
	case FormatYAML:
		return printYAML(w, row)
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Flag", "Enabled", "Variant")
		table.Append(row.FlagKey, strconv.FormatBool(row.Enabled), orDash(row.Variant))
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintBuckets outputs bucketing results in the specified format
func PrintBuckets(w io.Writer, rows []BucketRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]BucketRow{"buckets": rows})
	case FormatYAML:
		return printYAML(w, map[string][]BucketRow{"buckets": rows})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("User", "Seed", "Bucket", "Variant")
		for _, r := range rows {
			table.Append(r.UserID, r.Seed, strconv.Itoa(r.Bucket), orDash(r.Variant))
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFlagTable(w io.Writer, flags []store.Flag) error {
	table := tablewriter.NewWriter(w)
	table.Header("Key", "Rules", "Variants", "Description", "Updated At")

	for _, flag := range flags {
		description := flag.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}

		table.Append(
			flag.Key,
			strconv.Itoa(len(flag.Rules)),
			FormatVariants(flag.Variants),
			description,
			flag.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

// FormatVariants renders variants as "A=3000,B=7000".
func FormatVariants(variants []store.Variant) string {
	if len(variants) == 0 {
		return "-"
	}
	parts := make([]string, len(variants))
	for i, v := range variants {
		parts[i] = v.Key + "=" + strconv.Itoa(v.Weight)
	}
	return strings.Join(parts, ",")
}

// ParseVariants parses "A=3000,B=7000" into ordered variants.
func ParseVariants(s string) ([]store.Variant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var variants []store.Variant
	for _, part := range strings.Split(s, ",") {
		key, weight, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid variant %q, expected key=weight", part)
		}
		w, err := strconv.Atoi(strings.TrimSpace(weight))
		if err != nil {
			return nil, fmt.Errorf("invalid weight for variant %q: %w", key, err)
		}
		variants = append(variants, store.Variant{Key: strings.TrimSpace(key), Weight: w})
	}
	return variants, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
