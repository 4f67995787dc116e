// Package config handles drawcache configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/drawcache/internal/subdiv"
)

var (
	// ErrWorkers is returned for a negative worker count.
	ErrWorkers = errors.New("worker count must not be negative")
	// ErrChunk is returned for a non-positive chunk size.
	ErrChunk = errors.New("chunk size must be positive")
)

// Config holds all drawcache settings.
type Config struct {
	Extraction  ExtractionConfig  `yaml:"extraction"`
	Subdivision SubdivisionConfig `yaml:"subdivision"`
	Viewer      ViewerConfig      `yaml:"viewer"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ExtractionConfig holds extraction runner settings.
type ExtractionConfig struct {
	Workers    int  `yaml:"workers"` // 0 means one per CPU
	FaceChunk  int  `yaml:"face_chunk"`
	LooseChunk int  `yaml:"loose_chunk"`
	UseHide    bool `yaml:"use_hide"`
}

// SubdivisionConfig holds refinement settings.
type SubdivisionConfig struct {
	Enabled bool `yaml:"enabled"`
	Level   int  `yaml:"level"`
}

// ViewerConfig holds display settings for pointview.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	PointSize  float32 `yaml:"point_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Workers:    0,
			FaceChunk:  1024,
			LooseChunk: 2048,
			UseHide:    true,
		},
		Subdivision: SubdivisionConfig{
			Enabled: false,
			Level:   2,
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			PointSize:  6,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the extraction settings.
func (c ExtractionConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrWorkers)
	}
	if c.FaceChunk <= 0 {
		return fmt.Errorf("face_chunk %d: %w", c.FaceChunk, ErrChunk)
	}
	if c.LooseChunk <= 0 {
		return fmt.Errorf("loose_chunk %d: %w", c.LooseChunk, ErrChunk)
	}
	return nil
}

// Validate checks the refinement level.
func (c SubdivisionConfig) Validate() error {
	if c.Level < 1 || c.Level > subdiv.MaxLevel {
		return fmt.Errorf("subdivision level %d: %w", c.Level, subdiv.ErrLevelRange)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Extraction.Validate(); err != nil {
		return err
	}
	return c.Subdivision.Validate()
}
