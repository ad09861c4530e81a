// Package config provides configuration for the poolbench workload driver.
// It defines a single BenchConfig structure with structured sections,
// automatic defaults, environment variable substitution with ${VAR_NAME}
// syntax, and validation.
//
// Example usage:
//
//	cfg := config.NewBenchConfig("buffers")
//	cfg.Pool.MaximumSize = 256
//	cfg.Workload.Goroutines = 16
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Yortw/PoolSharp/pkg/pool"
)

// BenchConfig is the configuration structure for a poolbench run.
type BenchConfig struct {
	// Name identifies the workload run
	Name string `yaml:"name" json:"name"`

	// Pool settings map onto the pool policy
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Workload settings control the synthetic load
	Workload WorkloadConfig `yaml:"workload" json:"workload"`

	// Observability settings for metrics and logging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// PoolConfig carries the policy fields expressible in a config file.
type PoolConfig struct {
	// MaximumSize bounds idle instances; 0 means unlimited
	MaximumSize int `yaml:"maximum_size" json:"maximum_size"`
	// Timing is one of on_return, on_take, async
	Timing string `yaml:"timing" json:"timing"`
	// StrictReturns enables the duplicate-return diagnostic
	StrictReturns bool `yaml:"strict_returns" json:"strict_returns"`
	// Fill pre-populates the pool to capacity before the run
	Fill bool `yaml:"fill" json:"fill"`
	// Unsynchronized selects the single-goroutine variant
	Unsynchronized bool `yaml:"unsynchronized" json:"unsynchronized"`
}

// WorkloadConfig shapes the synthetic get/use/put load.
type WorkloadConfig struct {
	// Goroutines is the number of concurrent workers
	Goroutines int `yaml:"goroutines" json:"goroutines"`
	// Operations is the number of get/put cycles per worker
	Operations int `yaml:"operations" json:"operations"`
	// ValueBytes sizes the pooled payload
	ValueBytes int `yaml:"value_bytes" json:"value_bytes"`
	// HoldTime simulates work between get and put
	HoldTime time.Duration `yaml:"hold_time" json:"hold_time"`
}

// ObservabilityConfig controls metrics export and logging.
type ObservabilityConfig struct {
	// MetricsEnabled serves Prometheus metrics during the run
	MetricsEnabled bool `yaml:"metrics_enabled" json:"metrics_enabled"`
	// MetricsAddr is the listen address for the metrics endpoint
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// ReportInterval is the cadence for pushing pool stats to metrics
	ReportInterval time.Duration `yaml:"report_interval" json:"report_interval"`
	// LogLevel sets the zap log level
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogDevelopment switches to the console encoder
	LogDevelopment bool `yaml:"log_development" json:"log_development"`
}

// NewBenchConfig creates a configuration with sensible defaults for the
// given workload name.
func NewBenchConfig(name string) *BenchConfig {
	return &BenchConfig{
		Name: name,
		Pool: PoolConfig{
			MaximumSize: 128,
			Timing:      pool.OnReturn.String(),
		},
		Workload: WorkloadConfig{
			Goroutines: runtime.NumCPU(),
			Operations: 100000,
			ValueBytes: 4096,
		},
		Observability: ObservabilityConfig{
			MetricsAddr:    ":9090",
			ReportInterval: 5 * time.Second,
			LogLevel:       "info",
		},
	}
}

// ApplyDefaults fills zero-valued fields with the defaults from
// NewBenchConfig. Called after loading from a file so partial configs work.
func (c *BenchConfig) ApplyDefaults() {
	def := NewBenchConfig(c.Name)
	if c.Pool.Timing == "" {
		c.Pool.Timing = def.Pool.Timing
	}
	if c.Workload.Goroutines == 0 {
		c.Workload.Goroutines = def.Workload.Goroutines
	}
	if c.Workload.Operations == 0 {
		c.Workload.Operations = def.Workload.Operations
	}
	if c.Workload.ValueBytes == 0 {
		c.Workload.ValueBytes = def.Workload.ValueBytes
	}
	if c.Observability.MetricsAddr == "" {
		c.Observability.MetricsAddr = def.Observability.MetricsAddr
	}
	if c.Observability.ReportInterval == 0 {
		c.Observability.ReportInterval = def.Observability.ReportInterval
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = def.Observability.LogLevel
	}
}

// Validate checks the configuration for inconsistencies. It reuses the pool
// package's timing parser so config files and the policy enum cannot drift.
func (c *BenchConfig) Validate() error {
	timing, err := pool.ParseTiming(c.Pool.Timing)
	if err != nil {
		return err
	}

	if c.Pool.Unsynchronized {
		if timing == pool.Async {
			return fmt.Errorf("unsynchronized pool does not support async timing")
		}
		if c.Pool.MaximumSize <= 0 {
			return fmt.Errorf("unsynchronized pool requires maximum_size > 0, got %d", c.Pool.MaximumSize)
		}
		if c.Workload.Goroutines != 1 {
			return fmt.Errorf("unsynchronized pool requires exactly one goroutine, got %d", c.Workload.Goroutines)
		}
	}

	if c.Workload.Goroutines <= 0 {
		return fmt.Errorf("goroutines must be positive, got %d", c.Workload.Goroutines)
	}
	if c.Workload.Operations <= 0 {
		return fmt.Errorf("operations must be positive, got %d", c.Workload.Operations)
	}
	if c.Workload.ValueBytes < 0 {
		return fmt.Errorf("value_bytes must not be negative, got %d", c.Workload.ValueBytes)
	}
	if c.Workload.HoldTime < 0 {
		return fmt.Errorf("hold_time must not be negative, got %s", c.Workload.HoldTime)
	}

	return nil
}

// Timing returns the parsed reinitialization timing. Call Validate first.
func (c *BenchConfig) Timing() pool.ReinitializationTiming {
	t, _ := pool.ParseTiming(c.Pool.Timing)
	return t
}
