// Package config provides configuration management for the workflow engine core.
package config

import "time"

// Config holds the core engine's configuration. Unlike a node-level
// configuration (network access, cache TTLs, and similar concerns belong to
// the node implementations that need them, not the core), this struct only
// covers what the scheduler, registry, and event bus themselves consume.
type Config struct {
	// MaxParallelNodes bounds in-flight node tasks per execution.
	MaxParallelNodes int

	// DefaultNodeTimeout applies as a per-node timeout when a workflow does
	// not declare its own max_execution_time_ms.
	DefaultNodeTimeout time.Duration

	// EventBusCapacity is the per-subscriber channel buffer size for a new Bus.
	EventBusCapacity int

	// MaxWorkflowNodes and MaxWorkflowEdges bound workflow declaration size:
	// Executor.Execute rejects a workflow exceeding either before graph
	// construction runs. Zero or negative disables the corresponding check.
	MaxWorkflowNodes int
	MaxWorkflowEdges int

	// Retry defaults. Validate checks them, but the executor does not read
	// them: a NodeSpec without its own RetryPolicy gets exactly one attempt.
	DefaultMaxAttempts       int
	DefaultRetryDelay        time.Duration
	DefaultBackoffMultiplier float64
}

// Default returns the engine's baseline configuration.
func Default() *Config {
	return &Config{
		MaxParallelNodes:         10,
		DefaultNodeTimeout:       0, // no timeout unless the workflow declares one
		EventBusCapacity:         1000,
		MaxWorkflowNodes:         1000,
		MaxWorkflowEdges:         5000,
		DefaultMaxAttempts:       3,
		DefaultRetryDelay:        1 * time.Second,
		DefaultBackoffMultiplier: 2.0,
	}
}

// Development relaxes limits for local iteration.
func Development() *Config {
	cfg := Default()
	cfg.MaxWorkflowNodes = 10000
	cfg.MaxWorkflowEdges = 50000
	return cfg
}

// Production tightens nothing beyond Default today, but exists as a named
// entry point so callers don't have to hand-roll a config literal and so
// future hardening has a home.
func Production() *Config {
	return Default()
}

// Testing shrinks limits and timeouts so test suites fail fast.
func Testing() *Config {
	cfg := Default()
	cfg.MaxParallelNodes = 4
	cfg.EventBusCapacity = 64
	cfg.DefaultNodeTimeout = 5 * time.Second
	cfg.MaxWorkflowNodes = 100
	cfg.MaxWorkflowEdges = 500
	return cfg
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	if c.MaxParallelNodes <= 0 {
		return ErrInvalidMaxParallelNodes
	}
	if c.DefaultNodeTimeout < 0 {
		return ErrInvalidNodeTimeout
	}
	if c.EventBusCapacity <= 0 {
		return ErrInvalidEventBusCapacity
	}
	if c.MaxWorkflowNodes < 0 {
		return ErrInvalidMaxWorkflowNodes
	}
	if c.MaxWorkflowEdges < 0 {
		return ErrInvalidMaxWorkflowEdges
	}
	if c.DefaultMaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	if c.DefaultRetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.DefaultBackoffMultiplier < 0 {
		return ErrInvalidBackoffMultiplier
	}
	return nil
}

// Clone returns a shallow copy; Config holds no slices or maps so a value
// copy is always a full, independent copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
