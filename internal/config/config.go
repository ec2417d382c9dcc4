// Package config defines the engine's validated configuration structure.
//
// Every empirically tuned threshold in the processing chain (trigger
// velocity, duration ceilings, cutoff grids, scoring bands) is a field
// here with a documented default; stage code never hard-codes them. There
// is no module-level mutable configuration: a Config is built once and
// passed into each stage explicitly.
package config

import (
	"fmt"
	"runtime"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/kinematics"
)

// Config is the root configuration for a processing run.
type Config struct {
	// Workers bounds the batch worker pool; recordings are independent
	// and processed concurrently.
	Workers int `koanf:"workers"`

	// DBPath is the sqlite results store location. Empty disables
	// persistence.
	DBPath string `koanf:"db_path"`

	// MetricsAddr exposes the Prometheus endpoint when non-empty,
	// e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Pipeline holds every stage's tuning parameters.
	Pipeline kinematics.PipelineParams `koanf:"pipeline"`
}

// Default returns the documented configuration defaults.
func Default() *Config {
	return &Config{
		Workers:  runtime.NumCPU(),
		DBPath:   "mocapqa.db",
		Pipeline: kinematics.DefaultPipelineParams(),
	}
}

// Validate checks the configuration values. Fields omitted from a partial
// config retain their defaults, so validation runs on the merged result.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}
