package deckforge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives the synthesis side.
type Config struct {
	// ListenAddr is the local bus address. The capture side and the key
	// management commands talk to it.
	ListenAddr string `yaml:"listen_addr"`

	// DBPath is the SQLite file holding the credential and the journal.
	DBPath string `yaml:"db_path"`

	// Model is the Gemini model used for deck generation.
	Model string `yaml:"model"`

	// AnkiURL is the AnkiConnect endpoint.
	AnkiURL string `yaml:"anki_url"`

	// Debounce is the quiet period between the last flush trigger and
	// the synthesis run.
	Debounce time.Duration `yaml:"debounce"`

	// FromLanguage and ToLanguage name the practiced pair and select the
	// deck name.
	FromLanguage string `yaml:"from_language"`
	ToLanguage   string `yaml:"to_language"`
}

// LoadConfig reads a YAML config file and fills in defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("deckforge: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("deckforge: parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8790"
	}
	if c.DBPath == "" {
		c.DBPath = "duoflash.db"
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.AnkiURL == "" {
		c.AnkiURL = "http://127.0.0.1:8765"
	}
	if c.Debounce <= 0 {
		c.Debounce = 2 * time.Second
	}
	if c.FromLanguage == "" {
		c.FromLanguage = "es"
	}
	if c.ToLanguage == "" {
		c.ToLanguage = "en"
	}
}
