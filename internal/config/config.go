// Package config handles meshpack configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/meshpack/pkg/mesh"
)

// Config holds all meshpack settings.
type Config struct {
	Pack    PackConfig    `yaml:"pack"`
	Preview PreviewConfig `yaml:"preview"`
	Batch   BatchConfig   `yaml:"batch"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// PackConfig holds mesh packing settings.
type PackConfig struct {
	Mode        string         `yaml:"mode"` // indexed or dedup
	Triangulate bool           `yaml:"triangulate"`
	Material    MaterialConfig `yaml:"material"`
}

// MaterialConfig describes the material attached to every packed model.
type MaterialConfig struct {
	Name        string `yaml:"name"`
	PolygonMode string `yaml:"polygon_mode"` // face, line or point
	FacetSide   string `yaml:"facet_side"`   // front, back or front_and_back
}

// PreviewConfig holds thumbnail rendering settings.
type PreviewConfig struct {
	Enabled     bool    `yaml:"enabled"` // write a .webp next to each .mpak
	Size        int     `yaml:"size"`
	Supersample int     `yaml:"supersample"`
	Yaw         float32 `yaml:"yaw"`   // degrees
	Pitch       float32 `yaml:"pitch"` // degrees
}

// BatchConfig holds batch conversion settings.
type BatchConfig struct {
	Workers   int    `yaml:"workers"` // 0 means one per CPU
	OutputDir string `yaml:"output_dir"`
	Pattern   string `yaml:"pattern"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pack: PackConfig{
			Mode:        "indexed",
			Triangulate: false,
			Material: MaterialConfig{
				Name:        "default",
				PolygonMode: "face",
				FacetSide:   "front",
			},
		},
		Preview: PreviewConfig{
			Enabled:     false,
			Size:        256,
			Supersample: 2,
			Yaw:         30,
			Pitch:       20,
		},
		Batch: BatchConfig{
			Workers: 0,
			Pattern: "*.obj",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enum spellings and numeric ranges.
func (c *Config) Validate() error {
	var errs []error
	if _, err := mesh.ParsePackMode(c.Pack.Mode); err != nil {
		errs = append(errs, fmt.Errorf("pack.mode: %w", err))
	}
	if _, err := c.Material(); err != nil {
		errs = append(errs, err)
	}
	if c.Preview.Size <= 0 {
		errs = append(errs, fmt.Errorf("preview.size: must be positive, got %d", c.Preview.Size))
	}
	if c.Preview.Supersample < 1 || c.Preview.Supersample > 8 {
		errs = append(errs, fmt.Errorf("preview.supersample: must be 1..8, got %d", c.Preview.Supersample))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers: must not be negative, got %d", c.Batch.Workers))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative, got %s", c.Watch.Debounce))
	}
	return errors.Join(errs...)
}

// BuildOptions converts the pack section into mesh build options.
func (c *Config) BuildOptions() (mesh.BuildOptions, error) {
	mode, err := mesh.ParsePackMode(c.Pack.Mode)
	if err != nil {
		return mesh.BuildOptions{}, fmt.Errorf("pack.mode: %w", err)
	}
	return mesh.BuildOptions{Mode: mode, Triangulate: c.Pack.Triangulate}, nil
}

// Material converts the pack material section into a mesh.Material.
func (c *Config) Material() (mesh.Material, error) {
	pm, err := mesh.ParsePolygonMode(c.Pack.Material.PolygonMode)
	if err != nil {
		return mesh.Material{}, fmt.Errorf("pack.material.polygon_mode: %w", err)
	}
	side, err := mesh.ParseFacetSide(c.Pack.Material.FacetSide)
	if err != nil {
		return mesh.Material{}, fmt.Errorf("pack.material.facet_side: %w", err)
	}
	return mesh.Material{Name: c.Pack.Material.Name, PolygonMode: pm, FacetSide: side}, nil
}
