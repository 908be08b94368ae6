// Package config centralizes the core engine's tunables: parallelism cap,
// default node timeout, event bus capacity, workflow size limits, and retry
// defaults. Node-specific configuration (HTTP timeouts, cache TTLs, network
// allow-lists) belongs to the node implementations that need it, not here.
package config
