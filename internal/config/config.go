package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPollInterval      = 5 * time.Second
	defaultLifecycleTimeout  = 10 * time.Minute
	defaultConversionTimeout = 60 * time.Minute
)

// Config holds optional defaults loaded from ~/.config/pro-upgrade/config.yaml.
// Durations are expressed in seconds.
type Config struct {
	DefaultProfile    string `yaml:"default_profile"`
	DefaultRegion     string `yaml:"default_region"`
	AccountID         string `yaml:"account_id"`
	PollIntervalSecs  int    `yaml:"poll_interval"`
	LifecycleTimeout  int    `yaml:"lifecycle_timeout"`
	ConversionTimeout int    `yaml:"conversion_timeout"`
	Concurrency       int    `yaml:"concurrency"`
}

// Path returns the location of the config file under the user's home directory.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pro-upgrade", "config.yaml"), nil
}

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero-value Config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// PollInterval returns the conversion status poll interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSecs <= 0 {
		return defaultPollInterval
	}
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// LifecycleWait returns how long to wait for an instance to stop or start.
func (c *Config) LifecycleWait() time.Duration {
	if c.LifecycleTimeout <= 0 {
		return defaultLifecycleTimeout
	}
	return time.Duration(c.LifecycleTimeout) * time.Second
}

// ConversionWait returns how long to poll a conversion task before giving up.
func (c *Config) ConversionWait() time.Duration {
	if c.ConversionTimeout <= 0 {
		return defaultConversionTimeout
	}
	return time.Duration(c.ConversionTimeout) * time.Second
}

// Workers returns the number of instances processed at once. Defaults to 1.
func (c *Config) Workers() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}
