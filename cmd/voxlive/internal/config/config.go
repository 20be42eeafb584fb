// Package config loads the voxlive CLI configuration.
//
// Configuration lives in a single YAML file under os.UserConfigDir():
//
//	~/Library/Application Support/voxlive/config.yaml   (macOS)
//	~/.config/voxlive/config.yaml                       (Linux)
//	%AppData%/voxlive/config.yaml                       (Windows)
//
// The GEMINI_API_KEY environment variable overrides api_key.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "voxlive"

	// fileName is the configuration file name inside appDir.
	fileName = "config.yaml"
)

// envAPIKey overrides the configured API key when set.
const envAPIKey = "GEMINI_API_KEY"

// Config holds the CLI configuration.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string `yaml:"api_key"`

	// Model is the live conversation model. Empty selects the
	// client default.
	Model string `yaml:"model,omitempty"`

	// Voice selects the prebuilt voice for synthesized speech.
	Voice string `yaml:"voice,omitempty"`

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	// Path is where the configuration was loaded from. Not
	// serialized.
	Path string `yaml:"-"`
}

// Load reads the configuration from the default location and applies
// environment overrides. A missing file yields a zero Config.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, fileName))
}

// LoadFrom reads the configuration from a specific file and applies
// environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file yet: env vars may still provide everything.
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if key := os.Getenv(envAPIKey); key != "" {
		cfg.APIKey = key
	}
	return cfg, nil
}

// Save writes the configuration back to its Path.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.Path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", c.Path, err)
	}
	return nil
}
