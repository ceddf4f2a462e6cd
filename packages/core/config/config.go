package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the htup configuration
type Config struct {
	Root               string                    `yaml:"root,omitempty" json:"root,omitempty"`
	Editor             string                    `yaml:"editor,omitempty" json:"editor,omitempty"`
	DefaultEnvironment string                    `yaml:"defaultEnvironment,omitempty" json:"defaultEnvironment,omitempty"`
	Timeout            string                    `yaml:"timeout,omitempty" json:"timeout,omitempty"` // duration, e.g. "30s"
	FollowRedirects    *bool                     `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty"`
	MaxRedirects       int                       `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty"`
	ValidateSSL        *bool                     `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty"`
	Proxy              string                    `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Headers            map[string]string         `yaml:"headers,omitempty" json:"headers,omitempty"` // Default headers for all requests
	Environments       map[string]map[string]any `yaml:"environments,omitempty" json:"environments,omitempty"`
	History            *bool                     `yaml:"history,omitempty" json:"history,omitempty"`
	HistoryPath        string                    `yaml:"historyPath,omitempty" json:"historyPath,omitempty"`
	NoColor            *bool                     `yaml:"noColor,omitempty" json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetHistory returns whether executions are recorded, defaulting to true
func (c *Config) GetHistory() bool {
	return getBool(c.History, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout parses Timeout, falling back to DefaultTimeout when unset or invalid.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// GetRoot returns the workspace root, defaulting to the current directory.
func (c *Config) GetRoot() string {
	if c.Root == "" {
		return "."
	}
	return c.Root
}

// GetHistoryPath returns the history database path. Relative paths are
// resolved against the workspace root.
func (c *Config) GetHistoryPath() string {
	path := c.HistoryPath
	if path == "" {
		path = DefaultHistoryFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.GetRoot(), path)
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q: must be a positive duration like 30s", c.Timeout)
		}
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid maxRedirects %d: must not be negative", c.MaxRedirects)
	}
	if c.DefaultEnvironment != "" && len(c.Environments) > 0 {
		if _, ok := c.Environments[c.DefaultEnvironment]; !ok {
			return fmt.Errorf("defaultEnvironment %q is not defined in environments", c.DefaultEnvironment)
		}
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"htup.yaml",
	"htup.yml",
	".htup.yaml",
	".htup.yml",
	"htup.json",
	".htuprc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	if path := FindConfig(dir); path != "" {
		return loadConfigFromFile(path)
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// FindConfig returns the first config file present in dir, or "".
func FindConfig(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// loadConfigFromFile loads configuration from a specific file. YAML is tried
// first; JSON documents that YAML rejects are decoded as JSON.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
		config = DefaultConfig()
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, yamlErr)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv overrides settings from environment variables. The editor is
// taken from HTUP_EDITOR, then the config file, then EDITOR.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("HTUP_ROOT"); v != "" {
		c.Root = v
	}
	if v := getenv("HTUP_EDITOR"); v != "" {
		c.Editor = v
	} else if c.Editor == "" {
		c.Editor = getenv("EDITOR")
	}
	if v := getenv("HTUP_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := getenv("HTUP_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := getenv("HTUP_ENV"); v != "" {
		c.DefaultEnvironment = v
	}
	if v := getenv("HTUP_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History = BoolPtr(b)
		}
	}
	if v := getenv("NO_COLOR"); v != "" {
		c.NoColor = BoolPtr(true)
	}
	if v := getenv("HTUP_NO_COLOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.NoColor = BoolPtr(b)
		}
	}
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Root != "" {
		result.Root = other.Root
	}
	if other.Editor != "" {
		result.Editor = other.Editor
	}
	if other.DefaultEnvironment != "" {
		result.DefaultEnvironment = other.DefaultEnvironment
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.History != nil {
		result.History = other.History
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range other.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	if len(other.Environments) > 0 {
		merged := make(map[string]map[string]any, len(result.Environments)+len(other.Environments))
		for k, v := range result.Environments {
			merged[k] = v
		}
		for k, v := range other.Environments {
			merged[k] = v
		}
		result.Environments = merged
	}

	return &result
}

// SaveConfig saves the configuration to a file. Files ending in .json are
// written as JSON, everything else as YAML.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
