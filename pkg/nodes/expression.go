package nodes

import (
	"context"

	"github.com/expr-lang/expr"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
)

// ExpressionNode evaluates a user-supplied expr-lang expression against
// its "in" input, exposed to the expression as the `input` variable, and
// returns the result on "out".
type ExpressionNode struct {
	expression string
}

// ExpressionFactory builds ExpressionNode instances.
type ExpressionFactory struct{}

func (ExpressionFactory) NodeType() string { return "expression" }

func (ExpressionFactory) Metadata() registry.Metadata {
	return registry.Metadata{
		Description: "Evaluates an expr-lang expression against its input",
		Category:    "transform",
		Inputs:      []registry.PortDefinition{{Name: "in", Required: true}},
		Outputs:     []registry.PortDefinition{{Name: "out"}},
	}
}

func (ExpressionFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	exprVal, ok := cfg["expression"]
	if !ok {
		return nil, flowerr.Configuration("expression node requires an \"expression\" config field")
	}
	expression, ok := exprVal.AsString()
	if !ok || expression == "" {
		return nil, flowerr.Configuration("expression config field must be a non-empty string")
	}
	if _, err := expr.Compile(expression); err != nil {
		return nil, flowerr.Configuration("invalid expression: " + err.Error())
	}
	return &ExpressionNode{expression: expression}, nil
}

func (n *ExpressionNode) NodeType() string { return "expression" }

func (n *ExpressionNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	in, err := nc.RequireInput("in")
	if err != nil {
		return nil, err
	}
	native := in.Flatten()

	program, err := expr.Compile(n.expression, expr.Env(map[string]any{"input": native}))
	if err != nil {
		return nil, flowerr.ExecutionFailed("expression compilation failed: " + err.Error())
	}
	result, err := expr.Run(program, map[string]any{"input": native})
	if err != nil {
		return nil, flowerr.ExecutionFailed("expression evaluation failed: " + err.Error())
	}

	return node.NewOutput().WithOutput("out", value.FromAny(result)), nil
}
