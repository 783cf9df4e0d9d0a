package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvBaseURL         = "BLUEWIKI_BASE_URL"
	EnvDraftPassphrase = "BLUEWIKI_DRAFT_PASSPHRASE"
)

// Config is read from config.yaml, then environment, then flags.
type Config struct {
	BaseURL  string         `yaml:"base_url"`
	Timeout  time.Duration  `yaml:"timeout"`
	SaveMode string         `yaml:"save_mode"` // "reload" or "in_place"
	Drafts   DraftsSettings `yaml:"drafts"`
	Editor   string         `yaml:"editor"`
	DebugLog string         `yaml:"debug_log"`
}

type DraftsSettings struct {
	Path       string `yaml:"path"`
	Passphrase string `yaml:"passphrase"`
}

func Default() *Config {
	return &Config{
		BaseURL:  "http://localhost:8820/",
		Timeout:  30 * time.Second,
		SaveMode: "reload",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/bluewiki/config.yaml or the OS equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bluewiki", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvDraftPassphrase); v != "" {
		cfg.Drafts.Passphrase = v
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	switch c.SaveMode {
	case "", "reload", "in_place":
	default:
		return fmt.Errorf("save_mode must be reload or in_place, got %q", c.SaveMode)
	}
	return nil
}

// DraftsEnabled reports whether failed saves should be kept locally.
func (c *Config) DraftsEnabled() bool {
	return c.Drafts.Passphrase != ""
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
