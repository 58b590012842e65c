package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Filters  FiltersConfig  `yaml:"filters"`
	Session  SessionConfig  `yaml:"session"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// BackendConfig locates the analysis backend
type BackendConfig struct {
	URL     string   `yaml:"url" validate:"required,url"`
	Timeout Duration `yaml:"timeout"`

	// Discover asks the backend's /config endpoint for its advertised URL
	// on startup
	Discover bool `yaml:"discover,omitempty"`
}

// DatabaseConfig holds snapshot database settings. An empty path disables
// snapshots.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FiltersConfig tunes node classification
type FiltersConfig struct {
	UnsafeMarkers []string `yaml:"unsafe_markers,omitempty"`
}

// SessionConfig holds exploration session settings
type SessionConfig struct {
	// InitialQuery runs after every successful analysis
	InitialQuery string `yaml:"initial_query"`
}

// WatchConfig holds source watcher settings
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
