package lessonwatch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives the capture side.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Page    PageConfig    `yaml:"page"`
	Observe ObserveConfig `yaml:"observe"`
}

// BrowserConfig selects the Chrome instance.
type BrowserConfig struct {
	// Remote is the DevTools WebSocket URL of an already-running Chrome.
	// Empty means launch a local one. Watching a real practice session
	// usually means connecting to the user's own browser.
	Remote string `yaml:"remote"`

	// Headless applies only to a locally launched Chrome.
	Headless bool `yaml:"headless"`
}

// PageConfig names the page and the practiced language pair.
type PageConfig struct {
	URL          string `yaml:"url"`
	FromLanguage string `yaml:"from_language"`
	ToLanguage   string `yaml:"to_language"`
}

// ObserveConfig tunes the capture timings.
type ObserveConfig struct {
	// SettleWindow is how long the DOM must stay quiet after a check
	// before the result is read.
	SettleWindow time.Duration `yaml:"settle_window"`

	// PollInterval is how often the page URL is sampled for the
	// left-the-lesson transition.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LoadConfig reads a YAML config file and fills in defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("lessonwatch: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("lessonwatch: parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Page.URL == "" {
		c.Page.URL = "https://www.duolingo.com/"
	}
	if c.Page.FromLanguage == "" {
		c.Page.FromLanguage = "es"
	}
	if c.Page.ToLanguage == "" {
		c.Page.ToLanguage = "en"
	}
	if c.Observe.SettleWindow <= 0 {
		c.Observe.SettleWindow = 300 * time.Millisecond
	}
	if c.Observe.PollInterval <= 0 {
		c.Observe.PollInterval = time.Second
	}
}
