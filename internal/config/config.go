// Package config handles reactived configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (from a -config flag) is checked first. Then: ./config.yaml,
// ~/.config/reactived/config.yaml, /config/config.yaml,
// /etc/reactived/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reactived", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/reactived/config.yaml")
	return paths
}

// searchPathsFunc is a var so tests can override it without touching
// the developer's real search paths (~/.config/reactived/config.yaml
// and friends).
var searchPathsFunc = DefaultSearchPaths

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches searchPathsFunc() and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	paths := searchPathsFunc()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", paths)
}

// Config holds every source adapter this demo host can wire into the
// engine. Any section left absent simply isn't started.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	GitHub    GitHubConfig    `yaml:"github"`
	Ticker    TickerConfig    `yaml:"ticker"`
}

// WebSocketConfig configures the wssource adapter.
type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// MQTTConfig configures the mqttsource adapter.
type MQTTConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Broker   string   `yaml:"broker"`
	ClientID string   `yaml:"client_id"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Topics   []string `yaml:"topics"`
}

// GitHubConfig configures the githubsource adapter.
type GitHubConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Token    string        `yaml:"token"`
	BaseURL  string        `yaml:"base_url"`
	Owner    string        `yaml:"owner"`
	Repo     string        `yaml:"repo"`
	Interval time.Duration `yaml:"interval"`
}

// TickerConfig configures the tickersource adapter.
type TickerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Configured reports whether enough information is present to dial the
// broker.
func (c MQTTConfig) Configured() bool {
	return c.Enabled && c.Broker != ""
}

// Configured reports whether enough information is present to poll
// GitHub.
func (c GitHubConfig) Configured() bool {
	return c.Enabled && c.Owner != "" && c.Repo != ""
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates the
// result. After Load returns successfully, all fields are usable
// without additional nil/empty checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.GitHub.Interval == 0 {
		c.GitHub.Interval = 2 * time.Minute
	}
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}
	if c.Ticker.Interval == 0 {
		c.Ticker.Interval = 30 * time.Second
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "reactived"
	}
}

// Validate checks that the configuration is internally consistent. It
// runs after applyDefaults, so it can assume defaults are populated.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.WebSocket.Enabled && c.WebSocket.URL == "" {
		return fmt.Errorf("websocket.enabled is true but websocket.url is empty")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.enabled is true but mqtt.broker is empty")
	}
	if c.GitHub.Enabled && (c.GitHub.Owner == "" || c.GitHub.Repo == "") {
		return fmt.Errorf("github.enabled is true but owner/repo is empty")
	}
	return nil
}

// Default returns a default configuration with only the ticker source
// enabled, suitable for a dependency-free local demo run.
func Default() *Config {
	cfg := &Config{
		Ticker: TickerConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}
