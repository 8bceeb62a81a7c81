// Package config loads toolkit configuration from a YAML file and fills
// unset fields with calibrated defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/osteoimaging/xrayqa/internal/gap"
	"github.com/osteoimaging/xrayqa/internal/roi"
)

// Config is the full toolkit configuration. Every field has a working
// default; an absent file or empty document yields a usable config.
type Config struct {
	// ROI is the extraction rectangle applied to every landmark.
	ROI roi.Size `yaml:"roi"`
	// Batch tunes corpus comparison runs.
	Batch BatchConfig `yaml:"batch"`
	// Gap tunes the joint-space measurement.
	Gap gap.Params `yaml:"gap"`
}

// BatchConfig tunes corpus comparison runs.
type BatchConfig struct {
	// Workers caps the comparison worker pool; 0 picks one per CPU
	// minus one.
	Workers int `yaml:"workers"`
	// TopN is the number of worst-scoring pairs listed in reports.
	TopN int `yaml:"top_n"`
	// DiceThreshold is the per-landmark overlap a pair must reach to
	// count as agreeing.
	DiceThreshold float64 `yaml:"dice_threshold"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		ROI:   roi.Size{W: 180, H: 160},
		Batch: BatchConfig{TopN: 10, DiceThreshold: 0.5},
	}
	cfg.Gap.Defaults()
	return cfg
}

// Load reads a YAML config from path. Fields left unset in the file keep
// their defaults. A missing file is an error; use Default when the
// caller has no config path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Gap.Defaults()
	return cfg, nil
}

func (c Config) validate() error {
	if c.ROI.W <= 0 || c.ROI.H <= 0 {
		return fmt.Errorf("roi size must be positive, got %dx%d", c.ROI.W, c.ROI.H)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch workers must not be negative, got %d", c.Batch.Workers)
	}
	if c.Batch.TopN < 0 {
		return fmt.Errorf("batch top_n must not be negative, got %d", c.Batch.TopN)
	}
	if c.Batch.DiceThreshold < 0 || c.Batch.DiceThreshold > 1 {
		return fmt.Errorf("dice threshold must be in [0, 1], got %v", c.Batch.DiceThreshold)
	}
	return nil
}
