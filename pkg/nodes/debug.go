package nodes

import (
	"context"

	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
)

// DebugLogNode logs its "in" input at Info level under the configured
// label (default "debug.log") and passes
// it through unchanged on "out" — useful for inspecting intermediate
// values while building a workflow.
type DebugLogNode struct {
	log   *logging.Logger
	label string
}

// DebugLogFactory builds DebugLogNode instances.
type DebugLogFactory struct {
	Log *logging.Logger
}

func (DebugLogFactory) NodeType() string { return "debug.log" }

func (DebugLogFactory) Metadata() registry.Metadata {
	return registry.Metadata{
		Description: "Logs its input and passes it through unchanged",
		Category:    "debug",
		Inputs:      []registry.PortDefinition{{Name: "in"}},
		Outputs:     []registry.PortDefinition{{Name: "out"}},
	}
}

func (f DebugLogFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	label := "debug.log"
	if labelVal, ok := cfg["label"]; ok {
		if s, ok := labelVal.AsString(); ok {
			label = s
		}
	}
	log := f.Log
	if log == nil {
		log = logging.New(logging.DefaultConfig())
	}
	return &DebugLogNode{log: log, label: label}, nil
}

func (n *DebugLogNode) NodeType() string { return "debug.log" }

func (n *DebugLogNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	in := nc.Inputs["in"]
	n.log.WithNodeID(nc.NodeID).
		WithField("label", n.label).
		WithField("value", in.Flatten()).
		Info("debug.log")
	return node.NewOutput().WithOutput("out", in), nil
}
