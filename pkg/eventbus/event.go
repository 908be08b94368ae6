package eventbus

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/value"
)

// EventType tags the variant of an ExecutionEvent.
type EventType string

const (
	EventWorkflowStarted   EventType = "WorkflowStarted"
	EventWorkflowCompleted EventType = "WorkflowCompleted"
	EventNodeStarted       EventType = "NodeStarted"
	EventNodeCompleted     EventType = "NodeCompleted"
	EventNodeFailed        EventType = "NodeFailed"
	EventNodeEvent         EventType = "NodeEvent"
)

// NodeEventType tags the variant of a node-emitted NodeEvent payload.
type NodeEventType string

const (
	NodeEventInfo     NodeEventType = "Info"
	NodeEventWarning  NodeEventType = "Warning"
	NodeEventProgress NodeEventType = "Progress"
	NodeEventData     NodeEventType = "Data"
)

// NodeEvent is a node-emitted payload, streamed via its execution's
// EventEmitter.
type NodeEvent struct {
	Type    NodeEventType `json:"event_type"`
	Message string        `json:"message,omitempty"`
	Percent float64       `json:"percent,omitempty"`
	Port    string        `json:"port,omitempty"`
	Value   value.Value   `json:"value,omitempty"`
}

// ExecutionEvent is the tagged union of everything the event bus carries.
// Every event carries ExecutionID, an optional NodeID, and a timestamp.
type ExecutionEvent struct {
	Type        EventType  `json:"type"`
	ExecutionID uuid.UUID  `json:"execution_id"`
	NodeID      *uuid.UUID `json:"node_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`

	// WorkflowCompleted
	Success    bool  `json:"success,omitempty"`
	DurationMS int64 `json:"duration_ms,omitempty"`

	// NodeStarted
	NodeType string `json:"node_type,omitempty"`

	// NodeCompleted
	Outputs map[string]value.Value `json:"outputs,omitempty"`

	// NodeFailed
	Error string `json:"error,omitempty"`

	// NodeEvent
	Node *NodeEvent `json:"node_event,omitempty"`
}
