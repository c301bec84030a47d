package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the romecli client.
type Config struct {
	ServerURL string `yaml:"server_url"` // Backend base URL (default http://127.0.0.1:8000)
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	StatePath string `yaml:"state_path"` // SQLite state path (default ~/.romecli/state.db, ":memory:" for testing)
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		ServerURL: "http://127.0.0.1:8000",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultPath returns the path of the optional config file (~/.romecli/config.yml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".romecli", "config.yml"), nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if it exists), then the ROMECLI_SERVER environment variable.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// No config file; defaults apply.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if s := os.Getenv("ROMECLI_SERVER"); s != "" {
		cfg.ServerURL = s
	}

	return cfg, nil
}

// ResolveStatePath returns the SQLite state path, creating ~/.romecli when the
// default location is used.
func (c Config) ResolveStatePath() (string, error) {
	if c.StatePath != "" {
		return c.StatePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	dir := filepath.Join(home, ".romecli")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return filepath.Join(dir, "state.db"), nil
}
