package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the runtime configuration for the geo tracer service.
// It can be populated from CLI flags, config files, or both.
type Config struct {
	// Comment field for user documentation (ignored by the application)
	Comment string `json:"comment,omitempty"`

	// HTTP server
	HTTPHost string `json:"http_host,omitempty"`
	HTTPPort int    `json:"http_port,omitempty"`

	// Map surface
	MapToken string `json:"map_token,omitempty"` // access credential; empty = surface stays inert

	// Engine pacing
	RevealIntervalMs int     `json:"reveal_interval_ms,omitempty"` // delay between hop reveals
	FitPaddingPx     int     `json:"fit_padding_px,omitempty"`     // bounds-fit padding
	RotateStepDeg    float64 `json:"rotate_step_deg,omitempty"`    // idle rotation step per tick
	RotateIntervalMs int     `json:"rotate_interval_ms,omitempty"` // idle rotation cadence

	// Hop source
	SourceTimeoutMs int    `json:"source_timeout_ms,omitempty"` // hop fetch deadline
	SourceDelayMs   int    `json:"source_delay_ms,omitempty"`   // simulated probe latency
	CatalogPath     string `json:"catalog_path,omitempty"`      // optional YAML path catalog

	// Activity feed
	HistorySize int `json:"history_size,omitempty"`

	// Logging
	Verbose bool `json:"verbose,omitempty"`
}

// DefaultConfig returns a Config with the documented defaults: 1s hop
// reveal pacing, 0.1°/100ms idle rotation, 100px fit padding, and a
// 5s hop source deadline.
func DefaultConfig() *Config {
	return &Config{
		HTTPHost:         "127.0.0.1",
		HTTPPort:         4517,
		RevealIntervalMs: 1000,
		FitPaddingPx:     100,
		RotateStepDeg:    0.1,
		RotateIntervalMs: 100,
		SourceTimeoutMs:  5000,
		SourceDelayMs:    400,
		HistorySize:      25,
	}
}

// LoadConfigFromFile loads configuration from a JSON file at the given path.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &config, nil
}

// FindProjectConfig searches for a .geo-tracer.json config file. It
// starts in the current directory and walks up looking for the file,
// stopping when it finds a .git directory (project root) or reaches
// the filesystem root.
func FindProjectConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ".geo-tracer.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Repo root reached, stop even without a config.
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// GlobalConfigPath returns the path to the global config file,
// ~/.config/geo-tracer/config.json.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "geo-tracer", "config.json")
}

// MergeConfigs merges two configs with the overlay taking precedence.
// Zero-valued overlay fields leave the base value in place.
func MergeConfigs(base, overlay *Config) *Config {
	if base == nil {
		base = &Config{}
	}
	if overlay == nil {
		return base
	}

	merged := *base

	if overlay.HTTPHost != "" {
		merged.HTTPHost = overlay.HTTPHost
	}
	if overlay.HTTPPort > 0 {
		merged.HTTPPort = overlay.HTTPPort
	}
	if overlay.MapToken != "" {
		merged.MapToken = overlay.MapToken
	}
	if overlay.RevealIntervalMs > 0 {
		merged.RevealIntervalMs = overlay.RevealIntervalMs
	}
	if overlay.FitPaddingPx > 0 {
		merged.FitPaddingPx = overlay.FitPaddingPx
	}
	if overlay.RotateStepDeg > 0 {
		merged.RotateStepDeg = overlay.RotateStepDeg
	}
	if overlay.RotateIntervalMs > 0 {
		merged.RotateIntervalMs = overlay.RotateIntervalMs
	}
	if overlay.SourceTimeoutMs > 0 {
		merged.SourceTimeoutMs = overlay.SourceTimeoutMs
	}
	if overlay.SourceDelayMs > 0 {
		merged.SourceDelayMs = overlay.SourceDelayMs
	}
	if overlay.CatalogPath != "" {
		merged.CatalogPath = overlay.CatalogPath
	}
	if overlay.HistorySize > 0 {
		merged.HistorySize = overlay.HistorySize
	}
	if overlay.Verbose {
		merged.Verbose = overlay.Verbose
	}

	return &merged
}

// LoadEffectiveConfig loads the effective configuration by merging:
// 1. Built-in defaults
// 2. Global config file (if it exists)
// 3. Project config file (if it exists and no explicit path was given)
// 4. Explicit config file (if specified via configPath)
// Later sources override earlier ones.
func LoadEffectiveConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	globalPath := GlobalConfigPath()
	if globalPath != "" {
		if globalCfg, err := LoadConfigFromFile(globalPath); err == nil {
			config = MergeConfigs(config, globalCfg)
		}
		// The global config is optional; errors are ignored.
	}

	if configPath == "" {
		if projectPath, err := FindProjectConfig(); err == nil {
			projectCfg, err := LoadConfigFromFile(projectPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load project config: %w", err)
			}
			config = MergeConfigs(config, projectCfg)
		}
	} else {
		explicitCfg, err := LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = MergeConfigs(config, explicitCfg)
	}

	return config, nil
}
