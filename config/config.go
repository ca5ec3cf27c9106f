package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for bulkedit.
type Config struct {
	Forges   []ForgeConfig `yaml:"forges"`
	Defaults Defaults      `yaml:"defaults"`
}

// ForgeConfig describes a single code-forge instance and its credentials.
type ForgeConfig struct {
	Name  string `yaml:"name"`  // "github", "gitlab"
	Token string `yaml:"token"` // Inline, ${ENV_VAR}, or file path
}

// Defaults holds batch settings applied when the CLI flags leave them unset.
type Defaults struct {
	Workers int  `yaml:"workers"`
	DryRun  bool `yaml:"dry_run"`
}

// Forge returns the configuration for the named forge.
func (c *Config) Forge(name string) (ForgeConfig, bool) {
	for _, forge := range c.Forges {
		if forge.Name == name {
			return forge, true
		}
	}
	return ForgeConfig{}, false
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment variables
// and resolving token file paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	// Resolve tokens (env vars and file paths)
	for i := range cfg.Forges {
		cfg.Forges[i].Token = resolveToken(cfg.Forges[i].Token)
	}

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".bulkedit.yaml",
		".bulkedit.yml",
		"bulkedit.yaml",
		"bulkedit.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	if len(cfg.Forges) == 0 {
		return errors.New("at least one forge must be configured")
	}

	for i, f := range cfg.Forges {
		if f.Name == "" {
			return fmt.Errorf("forges[%d].name is required", i)
		}
		if f.Token == "" {
			return fmt.Errorf(
				"forges[%d].token is required (set inline, via ${ENV_VAR}, or as file path)",
				i,
			)
		}
	}

	if cfg.Defaults.Workers < 0 {
		return errors.New("defaults.workers must be >= 0")
	}

	return nil
}
