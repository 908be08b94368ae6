package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidMaxParallelNodes = errors.New("invalid max parallel nodes: must be positive")
	ErrInvalidNodeTimeout      = errors.New("invalid default node timeout: must be non-negative")
	ErrInvalidEventBusCapacity = errors.New("invalid event bus capacity: must be positive")
	ErrInvalidMaxWorkflowNodes = errors.New("invalid max workflow nodes: must be non-negative")
	ErrInvalidMaxWorkflowEdges = errors.New("invalid max workflow edges: must be non-negative")
	ErrInvalidMaxAttempts      = errors.New("invalid default max attempts: must be non-negative")
	ErrInvalidRetryDelay       = errors.New("invalid default retry delay: must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("invalid default backoff multiplier: must be non-negative")
)
