package cli

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/flagship-eval/internal/store"
)

// SeedFile is the on-disk format read by `flagship seed` and written by `flagship export`.
type SeedFile struct {
	ProjectID string           `json:"projectId" yaml:"projectId"`
	Flags     []FlagDefinition `json:"flags" yaml:"flags"`
}

// FlagDefinition is one flag in a seed file.
type FlagDefinition struct {
	Key         string          `json:"key" yaml:"key"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []store.Rule    `json:"rules,omitempty" yaml:"rules,omitempty"`
	Variants    []store.Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// ReadSeedFile reads and parses a seed file. YAML is a superset of JSON so
// both formats are accepted.
func ReadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSeedFile(data)
}

// ParseSeedFile parses seed file contents.
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(sf.Flags) == 0 {
		return nil, fmt.Errorf("no flags found in file")
	}
	return &sf, nil
}

// UpsertParams converts the file into store writes. A non-empty projectID
// overrides the project named in the file.
func (sf *SeedFile) UpsertParams(projectID string) ([]store.UpsertParams, error) {
	if projectID == "" {
		projectID = sf.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required (set projectId in the file or pass --project)")
	}

	params := make([]store.UpsertParams, len(sf.Flags))
	for i, f := range sf.Flags {
		params[i] = store.UpsertParams{
			ProjectID:   projectID,
			Key:         f.Key,
			Description: f.Description,
			Rules:       f.Rules,
			Variants:    f.Variants,
		}
	}
	return params, nil
}

// NewSeedFile builds a seed file from stored flags.
func NewSeedFile(projectID string, flags []store.Flag) *SeedFile {
	sf := &SeedFile{ProjectID: projectID, Flags: make([]FlagDefinition, len(flags))}
	for i, f := range flags {
		sf.Flags[i] = FlagDefinition{
			Key:         f.Key,
			Description: f.Description,
			Rules:       f.Rules,
			Variants:    f.Variants,
		}
	}
	return sf
}

// EncodeSeedFile writes sf to w as JSON, or as YAML for any other format.
func EncodeSeedFile(w io.Writer, sf *SeedFile, format OutputFormat) error {
	if format == FormatJSON {
		return printJSON(w, sf)
	}
	return printYAML(w, sf)
}
