/*
Package config loads server configuration from a TOML file.

PURPOSE:
  One place for everything tunable: HTTP port, database path, payment-link
  TTL, reaper cadence, CORS origins. Defaults match the behavior of the
  system this replaces (5-minute links, 1-minute sweep).

USAGE:
  cfg := config.Default()
  if path != "" {
      cfg, err = config.Load(path)
  }

FILE FORMAT:
  [server]
  port = 8080
  allowed_origins = ["http://localhost:5173"]

  [store]
  path = "virtus.db"

  [links]
  ttl = "5m"
  sweep_interval = "1m"
*/
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Links  LinksConfig  `toml:"links"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type LinksConfig struct {
	// TTL and SweepInterval are Go duration strings, e.g. "5m", "90s".
	TTL           string `toml:"ttl"`
	SweepInterval string `toml:"sweep_interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Store: StoreConfig{Path: "virtus.db"},
		Links: LinksConfig{TTL: "5m", SweepInterval: "1m"},
	}
}

// Load reads a TOML file over the defaults. Unset fields keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.LinkTTL(); err != nil {
		return err
	}
	if _, err := c.SweepInterval(); err != nil {
		return err
	}
	return nil
}

// LinkTTL parses the payment-link TTL.
func (c Config) LinkTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Links.TTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid links.ttl %q", c.Links.TTL)
	}
	return d, nil
}

// SweepInterval parses the reaper cadence.
func (c Config) SweepInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Links.SweepInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid links.sweep_interval %q", c.Links.SweepInterval)
	}
	return d, nil
}
