package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

type passthroughNode struct{}

func (passthroughNode) NodeType() string { return "stub.passthrough" }
func (passthroughNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	v, _ := nc.Inputs["in"]
	return node.NewOutput().WithOutput("out", v), nil
}

type passthroughFactory struct{}

func (passthroughFactory) NodeType() string           { return "stub.passthrough" }
func (passthroughFactory) Metadata() registry.Metadata { return registry.DefaultMetadata() }
func (passthroughFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	return passthroughNode{}, nil
}

func TestExecuteDirect(t *testing.T) {
	rt := New(nil)
	rt.Registry().Register(passthroughFactory{})

	id := uuid.New()
	wf := workflow.New("direct")
	wf.AddNode(workflow.NodeSpec{ID: id, NodeType: "stub.passthrough"})

	result, err := rt.Execute(context.Background(), wf, map[string]value.Value{"in": value.NewString("x")})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
}

func TestRegisterAndExecuteWorkflow(t *testing.T) {
	rt := New(nil)
	rt.Registry().Register(passthroughFactory{})

	id := uuid.New()
	wf := workflow.New("registered")
	wf.AddNode(workflow.NodeSpec{ID: id, NodeType: "stub.passthrough"})
	rt.RegisterWorkflow(wf)

	result, err := rt.ExecuteWorkflow(context.Background(), wf.ID, map[string]value.Value{"in": value.NewNumber(7)})
	if err != nil {
		t.Fatalf("ExecuteWorkflow() error = %v", err)
	}
	got, ok := result.Outputs[id]["out"].AsNumber()
	if !ok || got != 7 {
		t.Fatalf("got output %v, want 7", result.Outputs[id]["out"])
	}
}

func TestExecuteWorkflowNotFound(t *testing.T) {
	rt := New(nil)
	_, err := rt.ExecuteWorkflow(context.Background(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected NotFound error")
	}
	ferr, ok := err.(*flowerr.Error)
	if !ok || ferr.Kind != flowerr.KindNotFound {
		t.Fatalf("got error %v, want NotFound", err)
	}
}

func TestSubscribeEventsReceivesExecution(t *testing.T) {
	rt := New(nil)
	rt.Registry().Register(passthroughFactory{})
	receiver := rt.SubscribeEvents()

	wf := workflow.New("events")
	wf.AddNode(workflow.NodeSpec{ID: uuid.New(), NodeType: "stub.passthrough"})

	if _, err := rt.Execute(context.Background(), wf, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	select {
	case ev := <-receiver.Events():
		if ev.ExecutionID == uuid.Nil {
			t.Error("expected a populated execution id")
		}
	default:
		t.Fatal("expected at least one event on the subscriber channel")
	}
}
