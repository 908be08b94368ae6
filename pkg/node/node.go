// Package node defines the polymorphic contract every workflow node
// implements, and the per-execution context handed to it.
package node

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/eventbus"
	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/value"
)

// Node is the capability every workflow node must implement: a stable
// type identifier and an execute function. Optional lifecycle hooks are
// modeled as the separate interfaces below (Initializer, Shutdowner,
// ConfigValidator) and type-asserted by the executor/registry, since Go
// has no notion of a default interface method.
//
// Implementations must be safe to invoke from a concurrent scheduler:
// distinct instances may have Execute running simultaneously, though any
// single instance is only ever invoked once per workflow run, or once per
// attempt when its NodeSpec declares a RetryPolicy.
type Node interface {
	NodeType() string
	Execute(ctx context.Context, nc *Context) (*Output, error)
}

// Initializer is implemented by nodes that need one-time setup before
// their first Execute call in a run.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Shutdowner is implemented by nodes that hold resources needing release
// after a run, regardless of outcome.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ConfigValidator is implemented by nodes that can check their static
// config at load time, before any execution begins.
type ConfigValidator interface {
	ValidateConfig(cfg map[string]value.Value) error
}

// Context is the per-execution bundle handed to a node's Execute. Config
// is cloned from the owning NodeSpec for each run; State is private to
// this node instance and discarded when the run ends.
type Context struct {
	NodeID uuid.UUID
	Inputs map[string]value.Value
	Config map[string]value.Value
	State  *Store
	Events *eventbus.Emitter

	ctx context.Context
}

// NewContext builds a Context; ctx carries the node's cancellation scope.
func NewContext(ctx context.Context, nodeID uuid.UUID, inputs, cfg map[string]value.Value, events *eventbus.Emitter) *Context {
	cfgCopy := make(map[string]value.Value, len(cfg))
	for k, v := range cfg {
		cfgCopy[k] = v
	}
	return &Context{
		NodeID: nodeID,
		Inputs: inputs,
		Config: cfgCopy,
		State:  NewStore(),
		Events: events,
		ctx:    ctx,
	}
}

// Context returns the underlying context.Context for suspension points
// and cancellation checks.
func (c *Context) Context() context.Context { return c.ctx }

// RequireInput fetches a required input port, producing a MissingInput
// error if absent.
func (c *Context) RequireInput(name string) (value.Value, error) {
	v, ok := c.Inputs[name]
	if !ok {
		return value.Null, flowerr.MissingInput(name)
	}
	return v, nil
}

// RequireConfig fetches a required config field, producing a
// Configuration error if absent.
func (c *Context) RequireConfig(name string) (value.Value, error) {
	v, ok := c.Config[name]
	if !ok {
		return value.Null, flowerr.Configuration("missing required config field " + name)
	}
	return v, nil
}

// GetConfigOr fetches a config field, falling back to def if absent.
func (c *Context) GetConfigOr(name string, def value.Value) value.Value {
	if v, ok := c.Config[name]; ok {
		return v
	}
	return def
}

// Metadata describes execution bookkeeping attached to a NodeOutput.
type Metadata struct {
	ElapsedMS       int64
	MemoryUsedBytes *uint64
	Custom          map[string]value.Value
}

// Output is what a successful Execute call produces: per-port values
// plus execution metadata.
type Output struct {
	Outputs  map[string]value.Value
	Metadata Metadata
}

// NewOutput starts an empty Output.
func NewOutput() *Output {
	return &Output{Outputs: map[string]value.Value{}}
}

// WithOutput sets a single output port and returns the Output for chaining.
func (o *Output) WithOutput(port string, v value.Value) *Output {
	if o.Outputs == nil {
		o.Outputs = map[string]value.Value{}
	}
	o.Outputs[port] = v
	return o
}

// WithCustomMetadata attaches an arbitrary custom metadata field.
func (o *Output) WithCustomMetadata(key string, v value.Value) *Output {
	if o.Metadata.Custom == nil {
		o.Metadata.Custom = map[string]value.Value{}
	}
	o.Metadata.Custom[key] = v
	return o
}
