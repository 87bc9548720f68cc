// Package config loads the engine configuration from YAML. GUI, security
// and export settings from earlier iterations live outside this module; only
// what the engine consumes is modeled here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AI selects and tunes the suggestion backend.
type AI struct {
	// Enabled gates all backend calls; placeholders are used when false.
	Enabled bool `yaml:"enabled"`
	// BaseURL points at an OpenAI-compatible endpoint. Local servers such
	// as Ollama or LM Studio work unchanged.
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	MaxImageEdge int    `yaml:"max_image_edge"`
	TimeoutSecs  int    `yaml:"timeout_seconds"`
}

// OCR configures the optional recognition collaborator.
type OCR struct {
	Enabled   bool     `yaml:"enabled"`
	Languages []string `yaml:"languages"`
}

// Processing holds batch and document defaults.
type Processing struct {
	BatchLimit       int    `yaml:"batch_limit"`
	DefaultLanguage  string `yaml:"default_language"`
	PreserveOriginal bool   `yaml:"preserve_original"`
}

// Validation selects the compliance target.
type Validation struct {
	TargetLevel string `yaml:"target_level"` // "A", "AA" or "AAA"
}

// Config is the root configuration document.
type Config struct {
	AI         AI         `yaml:"ai"`
	OCR        OCR        `yaml:"ocr"`
	Processing Processing `yaml:"processing"`
	Validation Validation `yaml:"validation"`
	LogLevel   string     `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		AI: AI{
			Enabled:      false,
			BaseURL:      "http://localhost:11434/v1",
			Model:        "llava",
			MaxImageEdge: 1024,
			TimeoutSecs:  60,
		},
		OCR: OCR{
			Enabled:   false,
			Languages: []string{"eng"},
		},
		Processing: Processing{
			BatchLimit:       5,
			DefaultLanguage:  "en",
			PreserveOriginal: true,
		},
		Validation: Validation{TargetLevel: "AA"},
		LogLevel:   "info",
	}
}

// Load reads path on top of the defaults, so a partial file only overrides
// what it names.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
