// Package config provides configuration loading and management for AegisGate.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mackeh/AegisGate/internal/scope"
)

// Config represents the main AegisGate configuration
type Config struct {
	Version    string            `yaml:"version"`
	Trust      TrustConfig       `yaml:"trust"`
	Workspaces []scope.Workspace `yaml:"workspaces"`
	Approval   ApprovalConfig    `yaml:"approval"`
	Audit      AuditConfig       `yaml:"audit"`
	Policy     PolicyConfig      `yaml:"policy"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
}

// TrustConfig sets the default trust granted to evaluated sessions
type TrustConfig struct {
	DefaultLevel string `yaml:"default_level"` // "normal", "elevated", "full_system"
}

// ApprovalConfig contains approval workflow settings
type ApprovalConfig struct {
	DatabasePath          string `yaml:"database_path"`
	DefaultTimeoutMinutes int64  `yaml:"default_timeout_minutes"`
}

// AuditConfig contains audit log settings
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// PolicyConfig tunes the built-in policy rules
type PolicyConfig struct {
	OverridePath string   `yaml:"override_path"`
	SafeDomains  []string `yaml:"safe_domains"` // replaces the built-in network safe list when set
}

// TelemetryConfig contains observability settings
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // e.g., "stdout", "none"
}

// DefaultConfigDir returns the default configuration directory path
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".aegisgate"), nil
}

// Default returns a configuration with sensible defaults rooted in dir.
func Default(dir string) *Config {
	return &Config{
		Version: "0.1.0",
		Trust:   TrustConfig{DefaultLevel: "normal"},
		Approval: ApprovalConfig{
			DatabasePath:          filepath.Join(dir, "approvals.db"),
			DefaultTimeoutMinutes: 60,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "audit.log"),
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load reads the configuration from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration from the default path
func LoadDefault() (*Config, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Save writes the configuration to the specified path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
