package nodes

import (
	"context"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
)

// SchemaValidatorNode validates its "in" input against a JSON schema
// declared in config. In strict mode a failed validation is an
// execution error; otherwise it reports valid/errors on "out".
type SchemaValidatorNode struct {
	schemaLoader gojsonschema.JSONLoader
	strict       bool
}

// SchemaValidatorFactory builds SchemaValidatorNode instances.
type SchemaValidatorFactory struct{}

func (SchemaValidatorFactory) NodeType() string { return "schema_validator" }

func (SchemaValidatorFactory) Metadata() registry.Metadata {
	return registry.Metadata{
		Description: "Validates its input against a JSON schema",
		Category:    "validation",
		Inputs:      []registry.PortDefinition{{Name: "in", Required: true}},
		Outputs:     []registry.PortDefinition{{Name: "out"}},
	}
}

func (SchemaValidatorFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	schemaVal, ok := cfg["schema"]
	if !ok {
		return nil, flowerr.Configuration("schema_validator node requires a \"schema\" config field")
	}
	if schemaVal.Kind != value.KindObject && schemaVal.Kind != value.KindJSON {
		return nil, flowerr.Configuration("schema config field must be a JSON object")
	}
	schemaBytes, err := json.Marshal(schemaVal.Flatten())
	if err != nil {
		return nil, flowerr.Configuration("invalid schema: " + err.Error())
	}

	strict := false
	if strictVal, ok := cfg["strict"]; ok {
		strict, _ = strictVal.AsBool()
	}

	return &SchemaValidatorNode{
		schemaLoader: gojsonschema.NewBytesLoader(schemaBytes),
		strict:       strict,
	}, nil
}

func (n *SchemaValidatorNode) NodeType() string { return "schema_validator" }

func (n *SchemaValidatorNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	in, err := nc.RequireInput("in")
	if err != nil {
		return nil, err
	}

	inputBytes, err := json.Marshal(in.Flatten())
	if err != nil {
		return nil, flowerr.ExecutionFailed("failed to serialize input: " + err.Error())
	}

	result, err := gojsonschema.Validate(n.schemaLoader, gojsonschema.NewBytesLoader(inputBytes))
	if err != nil {
		return nil, flowerr.ExecutionFailed("schema validation failed: " + err.Error())
	}

	if result.Valid() {
		return node.NewOutput().
			WithOutput("out", value.NewObject(map[string]value.Value{
				"valid": value.NewBool(true),
				"data":  in,
			})), nil
	}

	if n.strict {
		return nil, flowerr.ExecutionFailedf("validation failed: %d errors found", len(result.Errors()))
	}

	errs := make([]value.Value, len(result.Errors()))
	for i, e := range result.Errors() {
		errs[i] = value.NewObject(map[string]value.Value{
			"field":       value.NewString(e.Field()),
			"type":        value.NewString(e.Type()),
			"description": value.NewString(e.Description()),
		})
	}

	return node.NewOutput().WithOutput("out", value.NewObject(map[string]value.Value{
		"valid":  value.NewBool(false),
		"data":   in,
		"errors": value.NewArray(errs),
	})), nil
}
