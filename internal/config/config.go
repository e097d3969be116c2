package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Library  LibraryConfig  `yaml:"library"`
	Feed     FeedConfig     `yaml:"feed"`
	Viewport ViewportConfig `yaml:"viewport"`
	Effects  EffectsConfig  `yaml:"effects"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
	Seed bool   `yaml:"seed"`
}

// LibraryConfig points at an optional directory of videos imported as reels.
type LibraryConfig struct {
	Path   string `yaml:"path"`
	Name   string `yaml:"name"`
	Author string `yaml:"author"`
}

type FeedConfig struct {
	PageSize int           `yaml:"page_size"`
	Latency  time.Duration `yaml:"latency"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ViewportConfig struct {
	Threshold  float64       `yaml:"threshold"`
	Dwell      time.Duration `yaml:"dwell"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type EffectsConfig struct {
	HeartTTL time.Duration `yaml:"heart_ttl"`
}

type SessionsConfig struct {
	Max        int           `yaml:"max"`
	TTL        time.Duration `yaml:"ttl"`
	MaxNotices int           `yaml:"max_notices"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         6540,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			Path: "data/reels.db",
			Seed: true,
		},
		Library: LibraryConfig{
			Name:   "Media Library",
			Author: "library",
		},
		Feed: FeedConfig{
			PageSize: 5,
			Latency:  time.Second,
			Timeout:  5 * time.Second,
		},
		Viewport: ViewportConfig{
			Threshold:  0.6,
			Dwell:      100 * time.Millisecond,
			RetryDelay: 250 * time.Millisecond,
		},
		Effects: EffectsConfig{
			HeartTTL: 1500 * time.Millisecond,
		},
		Sessions: SessionsConfig{
			Max:        256,
			TTL:        30 * time.Minute,
			MaxNotices: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// REELVIEW_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive")
	}
	if c.Feed.Latency < 0 {
		return fmt.Errorf("feed.latency must not be negative")
	}
	if c.Viewport.Threshold <= 0 || c.Viewport.Threshold > 1 {
		return fmt.Errorf("viewport.threshold must be in (0, 1]")
	}
	if c.Viewport.Dwell < 0 {
		return fmt.Errorf("viewport.dwell must not be negative")
	}
	if c.Sessions.Max <= 0 {
		return fmt.Errorf("sessions.max must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
