package nodes

import (
	"context"
	"time"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
)

// DelayNode waits out a fixed duration before passing its "in" input
// through to "out" unchanged, honoring cancellation.
type DelayNode struct {
	duration time.Duration
}

// DelayFactory builds DelayNode instances.
type DelayFactory struct{}

func (DelayFactory) NodeType() string { return "delay" }

func (DelayFactory) Metadata() registry.Metadata {
	return registry.Metadata{
		Description: "Waits a fixed duration, then passes its input through",
		Category:    "control",
		Inputs:      []registry.PortDefinition{{Name: "in"}},
		Outputs:     []registry.PortDefinition{{Name: "out"}},
	}
}

func (DelayFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	durVal, ok := cfg["duration_ms"]
	if !ok {
		return nil, flowerr.Configuration("delay node requires a \"duration_ms\" config field")
	}
	ms, ok := durVal.AsNumber()
	if !ok || ms < 0 {
		return nil, flowerr.Configuration("duration_ms config field must be a non-negative number")
	}
	return &DelayNode{duration: time.Duration(ms) * time.Millisecond}, nil
}

func (n *DelayNode) NodeType() string { return "delay" }

func (n *DelayNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	select {
	case <-time.After(n.duration):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return node.NewOutput().WithOutput("out", nc.Inputs["in"]), nil
}
