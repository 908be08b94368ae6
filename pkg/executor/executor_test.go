package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/config"
	"github.com/flowforge/flowengine/pkg/eventbus"
	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// stubFactory adapts a plain function into a registry.Factory for tests.
type stubFactory struct {
	nodeType string
	create   func(cfg map[string]value.Value) (node.Node, error)
}

func (f stubFactory) NodeType() string                                    { return f.nodeType }
func (f stubFactory) Metadata() registry.Metadata                         { return registry.DefaultMetadata() }
func (f stubFactory) Create(cfg map[string]value.Value) (node.Node, error) { return f.create(cfg) }

// echoNode copies its "in" input to its "out" output.
type echoNode struct{}

func (echoNode) NodeType() string { return "stub.echo" }
func (echoNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	v, ok := nc.Inputs["in"]
	if !ok {
		v = value.Null
	}
	return node.NewOutput().WithOutput("out", v), nil
}

// trackingNode counts how many of its executions are running at once and
// records the peak, for tests that assert on concurrency.
type trackingNode struct {
	mu      *sync.Mutex
	running *int
	peak    *int
	delay   time.Duration
}

func (n trackingNode) NodeType() string { return "stub.track" }
func (n trackingNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	n.mu.Lock()
	*n.running++
	if *n.running > *n.peak {
		*n.peak = *n.running
	}
	n.mu.Unlock()

	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
	}

	n.mu.Lock()
	*n.running--
	n.mu.Unlock()

	return node.NewOutput(), nil
}

// sleepNode blocks for delay or until its context is done, and sets no
// deadline of its own, so the executor's own context.WithTimeout is what
// cuts it off.
type sleepNode struct{ delay time.Duration }

func (sleepNode) NodeType() string { return "stub.sleep" }
func (n sleepNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	select {
	case <-time.After(n.delay):
		return node.NewOutput(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// failNode always fails with a fixed error.
type failNode struct{ msg string }

func (failNode) NodeType() string { return "stub.fail" }
func (n failNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	return nil, flowerr.ExecutionFailed(n.msg)
}

func newTestExecutor() *Executor {
	return New(config.Testing(), logging.New(logging.Config{Level: "error"}))
}

func newTestRegistry(nodes map[string]node.Node) *registry.Registry {
	reg := registry.New(nil)
	for nodeType, n := range nodes {
		n := n
		reg.Register(stubFactory{nodeType: nodeType, create: func(map[string]value.Value) (node.Node, error) { return n, nil }})
	}
	return reg
}

func collectEvents(r *eventbus.Receiver) []eventbus.ExecutionEvent {
	var events []eventbus.ExecutionEvent
	for {
		select {
		case ev := <-r.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestExecuteEchoSingleNode(t *testing.T) {
	a := uuid.New()
	wf := workflow.New("echo")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, map[string]value.Value{"in": value.NewString("hello")})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected Success = true")
	}
	if result.CompletedNodes != 1 || result.TotalNodes != 1 {
		t.Fatalf("got completed=%d total=%d, want 1/1", result.CompletedNodes, result.TotalNodes)
	}
	out, ok := result.Outputs[a]["out"].AsString()
	if !ok || out != "hello" {
		t.Fatalf("got output %v, want %q", result.Outputs[a]["out"], "hello")
	}

	events := collectEvents(receiver)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4 (Started,NodeStarted,NodeCompleted,Completed)", len(events))
	}
	wantOrder := []eventbus.EventType{
		eventbus.EventWorkflowStarted, eventbus.EventNodeStarted,
		eventbus.EventNodeCompleted, eventbus.EventWorkflowCompleted,
	}
	for i, want := range wantOrder {
		if events[i].Type != want {
			t.Errorf("event[%d] = %s, want %s", i, events[i].Type, want)
		}
	}
}

func TestExecuteTwoNodeChain(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	wf := workflow.New("chain")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.echo"})
	wf.Connect(a, "out", b, "in")

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)

	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, map[string]value.Value{"in": value.NewNumber(42)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got, ok := result.Outputs[b]["out"].AsNumber()
	if !ok || got != 42 {
		t.Fatalf("got b.out = %v, want 42", result.Outputs[b]["out"])
	}
}

func TestExecuteDiamondRespectsMaxParallel(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	wf := workflow.New("diamond")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.track"})
	wf.AddNode(workflow.NodeSpec{ID: c, NodeType: "stub.track"})
	wf.AddNode(workflow.NodeSpec{ID: d, NodeType: "stub.echo"})
	wf.Connect(a, "out", b, "in")
	wf.Connect(a, "out", c, "in")
	wf.Connect(b, "out", d, "in1")
	wf.Connect(c, "out", d, "in2")
	wf.Settings.MaxParallelNodes = 2

	var mu sync.Mutex
	running, peak := 0, 0
	tracker := trackingNode{mu: &mu, running: &running, peak: &peak, delay: 30 * time.Millisecond}

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}, "stub.track": tracker})
	bus := eventbus.New(16, nil)

	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, map[string]value.Value{"in": value.NewBool(true)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success || result.CompletedNodes != 4 {
		t.Fatalf("got success=%v completed=%d, want true/4", result.Success, result.CompletedNodes)
	}
	if peak < 2 {
		t.Errorf("peak concurrent b/c executions = %d, want >= 2 (both should run together)", peak)
	}
}

func TestExecuteDuplicateNodeIDRejectedBeforeAnyEvent(t *testing.T) {
	a := uuid.New()
	wf := workflow.New("dup")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	_, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, nil)
	if err == nil {
		t.Fatal("expected an Invalid error for a duplicate node id, got nil")
	}
	ferr, ok := err.(*flowerr.Error)
	if !ok || ferr.Kind != flowerr.KindInvalid {
		t.Fatalf("got error %v, want Invalid", err)
	}
	if events := collectEvents(receiver); len(events) != 0 {
		t.Fatalf("got %d events, want 0 (rejected before any execution event)", len(events))
	}
}

func TestExecuteExceedsMaxWorkflowNodesRejectedBeforeAnyEvent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	wf := workflow.New("too-big")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.echo"})

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	cfg := config.Testing()
	cfg.MaxWorkflowNodes = 1
	exec := New(cfg, logging.New(logging.Config{Level: "error"}))

	_, err := exec.Execute(context.Background(), wf, reg, bus, nil)
	if err == nil {
		t.Fatal("expected an Invalid error for exceeding MaxWorkflowNodes, got nil")
	}
	ferr, ok := err.(*flowerr.Error)
	if !ok || ferr.Kind != flowerr.KindInvalid {
		t.Fatalf("got error %v, want Invalid", err)
	}
	if events := collectEvents(receiver); len(events) != 0 {
		t.Fatalf("got %d events, want 0 (rejected before any execution event)", len(events))
	}
}

func TestExecuteCycleRejectedBeforeAnyEvent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	wf := workflow.New("cycle")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.echo"})
	wf.Connect(a, "out", b, "in")
	wf.Connect(b, "out", a, "in")

	reg := newTestRegistry(map[string]node.Node{"stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	_, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, nil)
	if err == nil {
		t.Fatal("expected CyclicDependency error, got nil")
	}
	ferr, ok := err.(*flowerr.Error)
	if !ok || ferr.Kind != flowerr.KindCyclicDependency {
		t.Fatalf("got error %v, want CyclicDependency", err)
	}
	if events := collectEvents(receiver); len(events) != 0 {
		t.Fatalf("got %d events, want 0 (rejected before any execution event)", len(events))
	}
}

func TestExecuteNodeTimeout(t *testing.T) {
	a := uuid.New()
	wf := workflow.New("timeout")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.sleep"})
	timeoutMS := uint64(100)
	wf.Settings.MaxExecutionTimeMS = &timeoutMS

	reg := newTestRegistry(map[string]node.Node{"stub.sleep": sleepNode{delay: 2 * time.Second}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	start := time.Now()
	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, nil)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a Timeout error, got nil")
	}
	ferr, ok := err.(*flowerr.Error)
	if !ok || ferr.Kind != flowerr.KindTimeout {
		t.Fatalf("got error %v, want Timeout", err)
	}
	if result.Success {
		t.Error("expected Success = false")
	}
	if elapsed > time.Second {
		t.Errorf("took %v, want close to the 100ms timeout", elapsed)
	}

	var sawFailed bool
	for _, ev := range collectEvents(receiver) {
		if ev.Type == eventbus.EventNodeFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("expected a NodeFailed event")
	}
}

func TestExecuteContinueOnError(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	wf := workflow.New("continue")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.fail"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.echo"})
	wf.Settings.OnError = workflow.ErrorHandling{Mode: workflow.ContinueOnError}

	reg := newTestRegistry(map[string]node.Node{"stub.fail": failNode{msg: "boom"}, "stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, map[string]value.Value{"in": value.NewString("still runs")})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil under ContinueOnError", err)
	}
	if result.Success {
		t.Error("got Success = true, want false: a node failed even though the run was absorbed by ContinueOnError")
	}
	if result.CompletedNodes != 2 {
		t.Fatalf("got completed=%d, want 2 (both settle)", result.CompletedNodes)
	}
	if _, ok := result.Outputs[a]; ok {
		t.Error("failed node should have no recorded outputs")
	}
	out, ok := result.Outputs[b]["out"].AsString()
	if !ok || out != "still runs" {
		t.Fatalf("got b.out = %v, want %q", result.Outputs[b]["out"], "still runs")
	}

	var gotFailedA, gotCompletedB bool
	for _, ev := range collectEvents(receiver) {
		if ev.Type == eventbus.EventNodeFailed && ev.NodeID != nil && *ev.NodeID == a {
			gotFailedA = true
		}
		if ev.Type == eventbus.EventNodeCompleted && ev.NodeID != nil && *ev.NodeID == b {
			gotCompletedB = true
		}
	}
	if !gotFailedA || !gotCompletedB {
		t.Error("expected both NodeFailed(a) and NodeCompleted(b)")
	}
}

func TestExecuteStopWorkflowSkipsDescendants(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	wf := workflow.New("stop")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "stub.fail"})
	wf.AddNode(workflow.NodeSpec{ID: b, NodeType: "stub.echo"})
	wf.AddNode(workflow.NodeSpec{ID: c, NodeType: "stub.echo"})
	wf.Connect(a, "out", b, "in")
	// c has no dependency on a and would be immediately ready.

	reg := newTestRegistry(map[string]node.Node{"stub.fail": failNode{msg: "boom"}, "stub.echo": echoNode{}})
	bus := eventbus.New(16, nil)

	result, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, nil)
	if err == nil {
		t.Fatal("expected the run to fail under StopWorkflow")
	}
	if result.Success {
		t.Error("expected Success = false")
	}
	if _, ok := result.Outputs[b]; ok {
		t.Error("node b should never have started")
	}
}

func TestExecuteUnknownNodeTypeFailsBeforeAnyEvent(t *testing.T) {
	a := uuid.New()
	wf := workflow.New("unknown")
	wf.AddNode(workflow.NodeSpec{ID: a, NodeType: "does.not.exist"})

	reg := registry.New(nil)
	bus := eventbus.New(16, nil)
	receiver := bus.Subscribe()

	_, err := newTestExecutor().Execute(context.Background(), wf, reg, bus, nil)
	if err == nil {
		t.Fatal("expected UnknownNodeType error")
	}
	if len(collectEvents(receiver)) != 0 {
		t.Error("expected no events emitted before instantiation succeeds")
	}
}
