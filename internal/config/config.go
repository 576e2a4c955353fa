package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/6inq/flippr/internal/host"
)

// Config holds all application configuration.
type Config struct {
	Host struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"host"`
	Detection struct {
		Regions      []host.Rect   `yaml:"regions"`
		OCRInterval  time.Duration `yaml:"ocr_interval"`
		ChatInterval time.Duration `yaml:"chat_interval"`
	} `yaml:"detection"`
	Limits struct {
		WikiBaseURL string `yaml:"wiki_base_url"`
		SeedFile    string `yaml:"seed_file"`
	} `yaml:"limits"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"api"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	Proxy            string        `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FLIPPR_HOST_URL"); v != "" {
		cfg.Host.BaseURL = v
	}
	if v := os.Getenv("FLIPPR_WIKI_URL"); v != "" {
		cfg.Limits.WikiBaseURL = v
	}
	if v := os.Getenv("FLIPPR_LISTEN_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Host.BaseURL == "" {
		cfg.Host.BaseURL = "http://127.0.0.1:17850"
	}
	if len(cfg.Detection.Regions) == 0 {
		cfg.Detection.Regions = []host.Rect{
			{X: 400, Y: 150, Width: 400, Height: 300},
			{X: 380, Y: 200, Width: 420, Height: 250},
		}
	}
	if cfg.Detection.OCRInterval == 0 {
		cfg.Detection.OCRInterval = 2 * time.Second
	}
	if cfg.Detection.ChatInterval == 0 {
		cfg.Detection.ChatInterval = 400 * time.Millisecond
	}
	if cfg.Limits.WikiBaseURL == "" {
		cfg.Limits.WikiBaseURL = "https://oldschool.runescape.wiki"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flippr.db"
	}
	if cfg.API.ListenAddr == "" {
		cfg.API.ListenAddr = "127.0.0.1:17851"
	}
	if cfg.AutosaveInterval == 0 {
		cfg.AutosaveInterval = 30 * time.Second
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Host.BaseURL == "" {
		return fmt.Errorf("host.base_url is required")
	}
	if len(c.Detection.Regions) == 0 {
		return fmt.Errorf("detection.regions must not be empty")
	}
	for i, r := range c.Detection.Regions {
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("detection.regions[%d] has non-positive size", i)
		}
	}
	if c.Detection.OCRInterval < 100*time.Millisecond {
		return fmt.Errorf("detection.ocr_interval is too short")
	}
	if c.Detection.ChatInterval < 100*time.Millisecond {
		return fmt.Errorf("detection.chat_interval is too short")
	}
	return nil
}
