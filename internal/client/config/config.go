package config

import "time"

// Config holds runtime settings for the medchat client.
//
// Fields:
//   - ServerURL: base URL of the medchat HTTP API.
//   - RequestTimeout: upper bound for a single API call. It must exceed the
//     server's model timeout or /send replies get cut off.
//   - OnlineCheckInterval: how often the client probes /health.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 90 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
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
