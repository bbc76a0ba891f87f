// Package config loads layered CLI configuration: an optional YAML file
// overridden by STRAND_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STRAND_"

// Config holds the CLI's settings. Timeout fields are duration strings
// ("30s", "2m"); use the accessor methods for parsed values.
type Config struct {
	APIKey         string `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	Assistant      string `koanf:"assistant"`
	Model          string `koanf:"model"`
	ConnectTimeout string `koanf:"connect_timeout"`
	IdleTimeout    string `koanf:"idle_timeout"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".strand", "config.yaml")
}

// Load reads configuration from path (skipped when missing) and the
// environment. Environment variables win: STRAND_API_KEY overrides the
// file's api_key, and so on.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConnectTimeoutOrDefault parses the configured connection timeout, falling
// back to d on absence or parse failure.
func (c *Config) ConnectTimeoutOrDefault(d time.Duration) time.Duration {
	return parseDuration(c.ConnectTimeout, d)
}

// IdleTimeoutOrDefault parses the configured idle timeout, falling back to
// d on absence or parse failure.
func (c *Config) IdleTimeoutOrDefault(d time.Duration) time.Duration {
	return parseDuration(c.IdleTimeout, d)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
