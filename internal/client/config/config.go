package config

import (
	"errors"
	"net/url"
	"time"
)

// ValueFlags lists the flags of this package that take a value. Callers
// use it to tell flags apart from command words.
var ValueFlags = []string{"-a", "-t", "-s", "-c", "-config"}

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	StateFile string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 10 * time.Second
	c.StateFile = "accountctl.db"
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("server url must be absolute, e.g. http://127.0.0.1:8080")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.StateFile == "" {
		return errors.New("state file is required")
	}
	return nil
}

// LoadConfig builds a Config from defaults, then JSON, then flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
