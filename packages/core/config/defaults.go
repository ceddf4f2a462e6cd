package config

import "time"

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
	// DefaultHistoryFile lives in the workspace root as a file, so it is
	// never listed as a project.
	DefaultHistoryFile = ".htup-history.db"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout.String(),
		MaxRedirects: DefaultMaxRedirects,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Root == defaults.Root &&
		c.Editor == defaults.Editor &&
		c.DefaultEnvironment == defaults.DefaultEnvironment &&
		c.GetTimeout() == defaults.GetTimeout() &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		len(c.Environments) == 0 &&
		c.GetHistory() == defaults.GetHistory() &&
		c.HistoryPath == defaults.HistoryPath &&
		c.GetNoColor() == defaults.GetNoColor()
}
