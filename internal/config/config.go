// internal/config/config.go
// Loads bot configuration from JSON (comments allowed) or YAML, with environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/erilali/showdown/internal/auth"
	"github.com/erilali/showdown/internal/directory"
	"github.com/erilali/showdown/internal/logger"
)

const (
	envPassword = "SHOWDOWN_PASSWORD"
	envNatsURL  = "NATS_URL"
)

// Config holds everything the responder needs to run.
type Config struct {
	Server       string   `json:"server" yaml:"server"`
	URL          string   `json:"url" yaml:"url"` // skips the directory when set
	DirectoryURL string   `json:"directory_url" yaml:"directory_url"`
	LoginURL     string   `json:"login_url" yaml:"login_url"`
	Username     string   `json:"username" yaml:"username"`
	Password     string   `json:"password" yaml:"password"`
	Rooms        []string `json:"rooms" yaml:"rooms"`

	StatusAddr    string `json:"status_addr" yaml:"status_addr"`
	NatsURL       string `json:"nats_url" yaml:"nats_url"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`

	Log logger.LogConfig `json:"log" yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:        directory.MainServer,
		DirectoryURL:  directory.DefaultBaseURL,
		LoginURL:      auth.DefaultLoginURL,
		SubjectPrefix: "showdown",
		Log:           logger.DefaultLogConfig(),
	}
}

// Load reads path on top of Default. A missing file is not an error.
// Files ending in .yaml or .yml are YAML; anything else is JSON, which may
// contain comments and trailing commas.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := decode(path, data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(jsonc.ToJSON(data), cfg)
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(envNatsURL); v != "" {
		c.NatsURL = v
	}
}

// Validate reports settings the bot cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return errors.New("username is required")
	}
	if c.Server == "" && c.URL == "" {
		return errors.New("either server or url is required")
	}
	if strings.ContainsAny(c.Username, ",|\n") {
		return fmt.Errorf("username %q contains a protocol separator", c.Username)
	}
	return nil
}
