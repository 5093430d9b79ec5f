package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DefaultFirm string `yaml:"default_firm"`
	OutputDir   string `yaml:"output_dir"`
	Regenerate  struct {
		DebounceMs int `yaml:"debounce_ms"`
		PollMs     int `yaml:"poll_ms"`
	} `yaml:"regenerate"`
	Bridge struct {
		Listen            string `yaml:"listen"`
		StaleAfterSeconds int    `yaml:"stale_after_seconds"`
	} `yaml:"bridge"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"metrics"`
	News struct {
		URL              string   `yaml:"url"`
		RowSelector      string   `yaml:"row_selector"`
		TimeSelector     string   `yaml:"time_selector"`
		CurrencySelector string   `yaml:"currency_selector"`
		ImpactSelector   string   `yaml:"impact_selector"`
		TitleSelector    string   `yaml:"title_selector"`
		TimeLayout       string   `yaml:"time_layout"`
		MinImpact        string   `yaml:"min_impact"`
		Currencies       []string `yaml:"currencies"`
		BlackoutMinutes  int      `yaml:"blackout_minutes"`
	} `yaml:"news"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.DefaultFirm == "" {
		c.DefaultFirm = "FTMO"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Regenerate.DebounceMs == 0 {
		c.Regenerate.DebounceMs = 800
	}
	if c.Regenerate.PollMs == 0 {
		c.Regenerate.PollMs = 500
	}
	if c.Bridge.Listen == "" {
		c.Bridge.Listen = "127.0.0.1:8080"
	}
	if c.Bridge.StaleAfterSeconds == 0 {
		c.Bridge.StaleAfterSeconds = 30
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = "127.0.0.1:9090"
	}
	if c.News.TimeLayout == "" {
		c.News.TimeLayout = "2006-01-02 15:04"
	}
	if c.News.MinImpact == "" {
		c.News.MinImpact = "high"
	}
	if c.News.BlackoutMinutes == 0 {
		c.News.BlackoutMinutes = 30
	}
}

func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output_dir cannot be empty")
	}
	if c.Regenerate.DebounceMs < 0 {
		return fmt.Errorf("regenerate.debounce_ms must be >= 0, got %d", c.Regenerate.DebounceMs)
	}
	if c.Regenerate.PollMs <= 0 {
		return fmt.Errorf("regenerate.poll_ms must be > 0, got %d", c.Regenerate.PollMs)
	}
	if c.Bridge.StaleAfterSeconds <= 0 {
		return fmt.Errorf("bridge.stale_after_seconds must be > 0, got %d", c.Bridge.StaleAfterSeconds)
	}
	if c.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days must be >= 0, got %d", c.Journal.RetentionDays)
	}
	switch c.News.MinImpact {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("news.min_impact must be 'low', 'medium', or 'high', got '%s'", c.News.MinImpact)
	}
	if c.News.URL != "" && c.News.RowSelector == "" {
		return errors.New("news.row_selector is required when news.url is set")
	}
	return nil
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Regenerate.DebounceMs) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Regenerate.PollMs) * time.Millisecond
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Bridge.StaleAfterSeconds) * time.Second
}

// LoadConfig reads path, applies defaults and validates. A missing file is
// not an error: the defaults are returned instead.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
