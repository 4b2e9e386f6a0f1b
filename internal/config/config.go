// Package config loads the user-facing configuration from config.yaml under
// the XDG configuration directory, creating a default file on first run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "sheetcheck"
	configFileName = "config.yaml"
)

const (
	DefaultTimeoutSeconds = 15
)

// HTTPConfig controls request dispatch for the whole run.
type HTTPConfig struct {
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Config captures the user-facing configuration stored in config.yaml.
type Config struct {
	HTTP    HTTPConfig `yaml:"http"`
	Verbose bool       `yaml:"verbose"`
}

// Timeout returns the configured per-request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// LoadResult reports the resolved configuration data and location.
type LoadResult struct {
	Config Config
	Path   string
	Loaded bool
}

// DefaultConfig returns the configuration values used when config.yaml is missing.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// ConfigPath resolves the expected config.yaml location under XDG config home.
func ConfigPath() (string, error) {
	if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
		return filepath.Join(configHome, appName, configFileName), nil
	}
	if strings.TrimSpace(xdg.ConfigHome) == "" {
		return "", fmt.Errorf("xdg config home not set")
	}
	return filepath.Join(xdg.ConfigHome, appName, configFileName), nil
}

// Load reads config.yaml (if present) from the XDG configuration directory.
func Load() (LoadResult, error) {
	return LoadFrom("")
}

// LoadFrom reads config.yaml (if present) from the provided path.
// When path is empty, the XDG configuration location is used.
func LoadFrom(path string) (LoadResult, error) {
	resolvedPath, err := resolveConfigPath(path)
	if err != nil {
		return LoadResult{}, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(resolvedPath, cfg); writeErr != nil {
				return LoadResult{}, writeErr
			}
			return LoadResult{Config: cfg, Path: resolvedPath, Loaded: true}, nil
		}
		return LoadResult{}, fmt.Errorf("read config %s: %w", resolvedPath, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return LoadResult{Config: cfg, Path: resolvedPath, Loaded: true}, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return LoadResult{}, fmt.Errorf("parse config %s: %w", resolvedPath, err)
	}

	cfg = applyDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return LoadResult{}, fmt.Errorf("invalid config %s: %w", resolvedPath, err)
	}

	return LoadResult{Config: cfg, Path: resolvedPath, Loaded: true}, nil
}

func resolveConfigPath(path string) (string, error) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return filepath.Clean(trimmed), nil
	}
	return ConfigPath()
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.TimeoutSeconds == 0 {
		cfg.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must not be negative")
	}
	return nil
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir %s: %w", filepath.Dir(path), err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
