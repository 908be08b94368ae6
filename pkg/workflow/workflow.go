// Package workflow defines the declarative shape of a workflow: nodes,
// connections, triggers, and settings. Nothing in this package executes
// anything; pkg/executor consumes these types to drive a run.
package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/value"
)

// Workflow is a declared DAG of nodes and connections.
type Workflow struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Nodes       []NodeSpec    `json:"nodes"`
	Connections []Connection  `json:"connections"`
	Triggers    []TriggerSpec `json:"triggers,omitempty"`
	Settings    Settings      `json:"settings"`
}

// New creates an empty, named Workflow with default settings.
func New(name string) *Workflow {
	return &Workflow{
		ID:       uuid.New(),
		Name:     name,
		Settings: DefaultSettings(),
	}
}

// AddNode appends a NodeSpec to the workflow and returns it for chaining.
func (w *Workflow) AddNode(spec NodeSpec) *Workflow {
	w.Nodes = append(w.Nodes, spec)
	return w
}

// Connect appends a Connection between two node ports.
func (w *Workflow) Connect(fromNode uuid.UUID, fromPort string, toNode uuid.UUID, toPort string) *Workflow {
	w.Connections = append(w.Connections, Connection{
		FromNode: fromNode, FromPort: fromPort,
		ToNode: toNode, ToPort: toPort,
	})
	return w
}

// FindNode returns the NodeSpec with the given ID, or nil if absent.
func (w *Workflow) FindNode(id uuid.UUID) *NodeSpec {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}

// Position is an optional layout hint, opaque to the core.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// RetryPolicy controls per-node retry behavior, honored by the executor.
type RetryPolicy struct {
	MaxAttempts       uint32  `json:"max_attempts"`
	DelayMS           uint64  `json:"delay_ms"`
	BackoffMultiplier float64 `json:"backoff_multiplier"`
}

// DefaultRetryPolicy matches the original engine's defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, DelayMS: 1000, BackoffMultiplier: 2.0}
}

// NodeSpec declares one node instance within a workflow.
type NodeSpec struct {
	ID          uuid.UUID              `json:"id"`
	NodeType    string                 `json:"node_type"`
	Name        string                 `json:"name,omitempty"`
	Config      map[string]value.Value `json:"config,omitempty"`
	Position    *Position              `json:"position,omitempty"`
	RetryPolicy *RetryPolicy           `json:"retry_policy,omitempty"`
}

// WithConfig sets a single config field and returns the spec for chaining.
func (n NodeSpec) WithConfig(key string, v value.Value) NodeSpec {
	if n.Config == nil {
		n.Config = map[string]value.Value{}
	}
	n.Config[key] = v
	return n
}

// WithName sets the display name.
func (n NodeSpec) WithName(name string) NodeSpec {
	n.Name = name
	return n
}

// WithPosition sets the layout hint.
func (n NodeSpec) WithPosition(x, y float32) NodeSpec {
	n.Position = &Position{X: x, Y: y}
	return n
}

// WithRetry attaches a retry policy.
func (n NodeSpec) WithRetry(p RetryPolicy) NodeSpec {
	n.RetryPolicy = &p
	return n
}

// Connection wires an output port of one node to an input port of another.
type Connection struct {
	FromNode uuid.UUID `json:"from_node"`
	FromPort string    `json:"from_port"`
	ToNode   uuid.UUID `json:"to_node"`
	ToPort   string    `json:"to_port"`
}

// TriggerType is opaque to the core; it is carried so an external
// trigger-dispatch collaborator has a stable shape to consume.
type TriggerType struct {
	Kind       string `json:"kind"` // "manual" | "cron" | "webhook" | "event"
	Expression string `json:"expression,omitempty"`
	Path       string `json:"path,omitempty"`
	EventType  string `json:"event_type,omitempty"`
}

// TriggerSpec declares one trigger attached to a workflow. The core never
// interprets it.
type TriggerSpec struct {
	ID      uuid.UUID   `json:"id"`
	Trigger TriggerType `json:"trigger"`
	Enabled bool        `json:"enabled"`
}

// ErrorHandling selects the scheduler's behavior when a node fails.
type ErrorHandling struct {
	Mode        string `json:"mode"` // "StopWorkflow" | "ContinueOnError" | "RetryWorkflow"
	MaxAttempts uint32 `json:"max_attempts,omitempty"`
}

const (
	StopWorkflow    = "StopWorkflow"
	ContinueOnError = "ContinueOnError"
	RetryWorkflow   = "RetryWorkflow"
)

// MarshalJSON implements the string-tagged encoding from §6: a plain
// string for the no-argument variants, an object for RetryWorkflow.
func (e ErrorHandling) MarshalJSON() ([]byte, error) {
	if e.Mode == RetryWorkflow {
		return []byte(fmt.Sprintf(`{"%s":{"max_attempts":%d}}`, RetryWorkflow, e.MaxAttempts)), nil
	}
	if e.Mode == "" {
		e.Mode = StopWorkflow
	}
	return []byte(`"` + e.Mode + `"`), nil
}

// UnmarshalJSON accepts either a bare string or a {"RetryWorkflow":{...}} object.
func (e *ErrorHandling) UnmarshalJSON(data []byte) error {
	var asString string
	if err := jsonUnmarshalString(data, &asString); err == nil {
		e.Mode = asString
		return nil
	}
	var asObject map[string]struct {
		MaxAttempts uint32 `json:"max_attempts"`
	}
	if err := jsonUnmarshalObject(data, &asObject); err != nil {
		return err
	}
	for k, v := range asObject {
		e.Mode = k
		e.MaxAttempts = v.MaxAttempts
	}
	return nil
}

// Settings controls scheduling policy for a single execution.
type Settings struct {
	MaxExecutionTimeMS *uint64       `json:"max_execution_time_ms,omitempty"`
	MaxParallelNodes   int           `json:"max_parallel_nodes"`
	OnError            ErrorHandling `json:"on_error"`
}

// DefaultSettings matches the original engine's defaults: 10-way
// parallelism, stop-the-workflow on first node failure, no timeout.
func DefaultSettings() Settings {
	return Settings{
		MaxParallelNodes: 10,
		OnError:          ErrorHandling{Mode: StopWorkflow},
	}
}

// Validate checks the workflow's structural invariants that don't require
// graph construction: unique node IDs and connection endpoints that
// resolve within the node sequence. Cycle detection is pkg/executor's job
// since it needs the full graph machinery anyway.
func (w *Workflow) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		if _, dup := seen[n.ID]; dup {
			return duplicateNodeIDError(n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, c := range w.Connections {
		if _, ok := seen[c.FromNode]; !ok {
			return danglingConnectionError(c.FromNode)
		}
		if _, ok := seen[c.ToNode]; !ok {
			return danglingConnectionError(c.ToNode)
		}
	}
	return nil
}
