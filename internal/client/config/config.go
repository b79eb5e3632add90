// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Resumate sync client.
//
// Fields:
//   - ServerBaseURL: scheme://host[:port] of the session API.
//   - MetadataDebounce / ContentDebounce: per-channel debounce intervals.
//   - MaxRetries: bounded retry attempts beyond the first try.
//   - RetryBaseDelay: first backoff delay; doubles per attempt.
//   - ProbeInterval: how long a backend reachability probe result is cached.
//   - DraftDBPath: sqlite file backing offline draft durability.
type Config struct {
	ServerBaseURL    string
	MetadataDebounce time.Duration
	ContentDebounce  time.Duration
	MaxRetries       uint64
	RetryBaseDelay   time.Duration
	ProbeInterval    time.Duration
	DraftDBPath      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.MetadataDebounce = 1 * time.Second
	c.ContentDebounce = 2 * time.Second
	c.MaxRetries = 3
	c.RetryBaseDelay = 250 * time.Millisecond
	c.ProbeInterval = 3 * time.Second
	c.DraftDBPath = "resumate-drafts.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
