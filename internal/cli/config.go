package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "FLAGSHIP_CONFIG"

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile holds the target service and default evaluation scope.
type Profile struct {
	BaseURL     string `yaml:"base_url"`
	ProjectID   string `yaml:"project_id"`
	Environment string `yaml:"environment"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".flagship", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				DefaultProfile: "local",
				Profiles:       make(map[string]Profile),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides are values given on the command line. Empty fields are unset.
type Overrides struct {
	BaseURL     string
	ProjectID   string
	Environment string
}

// ResolveProfile returns the effective profile.
// Priority: command flags > environment variables > config file.
func ResolveProfile(profileName string, flags Overrides) (*Profile, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if profileName == "" {
		profileName = cfg.DefaultProfile
	}
	profile := cfg.Profiles[profileName]

	pick := func(flag, envVar, fromFile string) string {
		if flag != "" {
			return flag
		}
		if v := os.Getenv(envVar); v != "" {
			return v
		}
		return fromFile
	}
	profile.BaseURL = pick(flags.BaseURL, "FLAGSHIP_BASE_URL", profile.BaseURL)
	profile.ProjectID = pick(flags.ProjectID, "FLAGSHIP_PROJECT", profile.ProjectID)
	profile.Environment = pick(flags.Environment, "FLAGSHIP_ENVIRONMENT", profile.Environment)

	if profile.BaseURL == "" {
		return nil, fmt.Errorf("base_url must be configured for profile '%s' (or pass --base-url)", profileName)
	}

	return &profile, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "local",
		Profiles: map[string]Profile{
			"local": {
				BaseURL:     "http://localhost:8080",
				ProjectID:   "demo",
				Environment: "dev",
			},
			"prod": {
				BaseURL:     "https://flagship.example.com",
				ProjectID:   "demo",
				Environment: "prod",
			},
		},
	}

	return SaveConfig(cfg)
}
