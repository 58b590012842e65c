// Package config loads cpgview settings from a YAML file and the environment.
//
// Config file locations (priority order):
//  1. $CPGVIEW_CONFIG
//  2. ./cpgview.yaml
//  3. $XDG_CONFIG_HOME/cpgview/config.yaml
//  4. ~/.config/cpgview/config.yaml
//  5. /etc/cpgview/config.yaml
//
// Environment variables override the file: CPGVIEW_BACKEND_URL sets the
// backend address directly, BACKEND_HOST and BACKEND_PORT build it from parts.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides
const (
	EnvBackendURL  = "CPGVIEW_BACKEND_URL"
	EnvBackendHost = "BACKEND_HOST"
	EnvBackendPort = "BACKEND_PORT"
)

// Defaults
const (
	DefaultAddr         = ":3000"
	DefaultBackendHost  = "localhost"
	DefaultBackendPort  = "8000"
	DefaultDatabasePath = "./cpgview.db"
	DefaultInitialQuery = "MATCH (n) RETURN n LIMIT 10"
	DefaultTimeout      = 5 * time.Minute
	DefaultDebounce     = 500 * time.Millisecond
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied either way.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Server:   ServerConfig{Addr: DefaultAddr},
		Backend:  BackendConfig{URL: backendURL(DefaultBackendHost, DefaultBackendPort), Timeout: Duration(DefaultTimeout)},
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Session:  SessionConfig{InitialQuery: DefaultInitialQuery},
		Watch:    WatchConfig{Debounce: Duration(DefaultDebounce)},
	}
}

// applyDefaults fills in missing values with defaults. Database.Path is left
// alone: an empty path is how snapshots are turned off.
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Backend.URL == "" {
		c.Backend.URL = def.Backend.URL
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = def.Backend.Timeout
	}
	if strings.TrimSpace(c.Session.InitialQuery) == "" {
		c.Session.InitialQuery = def.Session.InitialQuery
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
}

// ApplyEnv overrides the backend address from the environment.
// CPGVIEW_BACKEND_URL wins over BACKEND_HOST/BACKEND_PORT.
func (c *Config) ApplyEnv() {
	if url := os.Getenv(EnvBackendURL); url != "" {
		c.Backend.URL = strings.TrimRight(url, "/")
		return
	}

	host, port := os.Getenv(EnvBackendHost), os.Getenv(EnvBackendPort)
	if host == "" && port == "" {
		return
	}
	if host == "" {
		host = DefaultBackendHost
	}
	if port == "" {
		port = DefaultBackendPort
	}
	c.Backend.URL = backendURL(host, port)
}

// Validate checks required fields
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	snapshots := c.Database.Path
	if snapshots == "" {
		snapshots = "disabled"
	}
	return fmt.Sprintf("Listen: %s, Backend: %s (timeout %s), Snapshots: %s",
		c.Server.Addr, c.Backend.URL, c.Backend.Timeout.Duration(), snapshots)
}

func backendURL(host, port string) string {
	return "http://" + net.JoinHostPort(host, port)
}
