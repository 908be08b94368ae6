// Package nodes provides a small illustrative catalog of node types:
// debug.log, http.request (a real net/http GET), delay, expression, and
// schema_validator. It is not meant to be exhaustive — a real
// deployment registers its own domain-specific node types the same
// way these register themselves, via registry.Factory.
package nodes
