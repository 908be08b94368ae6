package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/flowengine/pkg/eventbus"
)

// Collector consumes ExecutionEvents from an eventbus.Receiver and turns
// them into OpenTelemetry spans and Provider metrics. Unlike the
// teacher's synchronous observer.Observer.OnEvent push, the collector
// runs as its own goroutine reading off the bus, since telemetry must
// never be in the hot execution path.
type Collector struct {
	provider *Provider

	workflowSpans map[uuid.UUID]trace.Span
	workflowStart map[uuid.UUID]time.Time
	nodeSpans     map[uuid.UUID]trace.Span
	nodeStart     map[uuid.UUID]time.Time
}

// NewCollector creates a Collector backed by provider.
func NewCollector(provider *Provider) *Collector {
	return &Collector{
		provider:      provider,
		workflowSpans: make(map[uuid.UUID]trace.Span),
		workflowStart: make(map[uuid.UUID]time.Time),
		nodeSpans:     make(map[uuid.UUID]trace.Span),
		nodeStart:     make(map[uuid.UUID]time.Time),
	}
}

// Run reads events from r until ctx is cancelled or the receiver closes.
// Intended to be launched with `go collector.Run(ctx, bus.Subscribe())`.
func (c *Collector) Run(ctx context.Context, r *eventbus.Receiver) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.Events():
			if !ok {
				return
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Collector) handle(ctx context.Context, ev eventbus.ExecutionEvent) {
	switch ev.Type {
	case eventbus.EventWorkflowStarted:
		c.handleWorkflowStarted(ctx, ev)
	case eventbus.EventWorkflowCompleted:
		c.handleWorkflowCompleted(ctx, ev)
	case eventbus.EventNodeStarted:
		c.handleNodeStarted(ctx, ev)
	case eventbus.EventNodeCompleted:
		c.handleNodeEnd(ctx, ev, true, "")
	case eventbus.EventNodeFailed:
		c.handleNodeEnd(ctx, ev, false, ev.Error)
	}
}

func (c *Collector) handleWorkflowStarted(ctx context.Context, ev eventbus.ExecutionEvent) {
	_, span := c.provider.Tracer().Start(ctx, "workflow.execute",
		trace.WithAttributes(attribute.String("execution.id", ev.ExecutionID.String())))
	c.workflowSpans[ev.ExecutionID] = span
	c.workflowStart[ev.ExecutionID] = ev.Timestamp
}

func (c *Collector) handleWorkflowCompleted(ctx context.Context, ev eventbus.ExecutionEvent) {
	duration := time.Duration(ev.DurationMS) * time.Millisecond
	if start, ok := c.workflowStart[ev.ExecutionID]; ok {
		duration = time.Since(start)
		delete(c.workflowStart, ev.ExecutionID)
	}

	c.provider.RecordWorkflowExecution(ctx, ev.ExecutionID.String(), duration, ev.Success, 0)

	if span, ok := c.workflowSpans[ev.ExecutionID]; ok {
		if ev.Success {
			span.SetStatus(codes.Ok, "workflow completed")
		} else {
			span.SetStatus(codes.Error, "workflow failed")
		}
		span.End()
		delete(c.workflowSpans, ev.ExecutionID)
	}
}

func (c *Collector) handleNodeStarted(ctx context.Context, ev eventbus.ExecutionEvent) {
	if ev.NodeID == nil {
		return
	}
	parent := ctx
	if span, ok := c.workflowSpans[ev.ExecutionID]; ok {
		parent = trace.ContextWithSpan(ctx, span)
	}
	_, span := c.provider.Tracer().Start(parent, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", ev.NodeID.String()),
			attribute.String("node.type", ev.NodeType),
			attribute.String("execution.id", ev.ExecutionID.String()),
		),
	)
	c.nodeSpans[*ev.NodeID] = span
	c.nodeStart[*ev.NodeID] = ev.Timestamp
}

func (c *Collector) handleNodeEnd(ctx context.Context, ev eventbus.ExecutionEvent, success bool, errMsg string) {
	if ev.NodeID == nil {
		return
	}
	var duration time.Duration
	if start, ok := c.nodeStart[*ev.NodeID]; ok {
		duration = time.Since(start)
		delete(c.nodeStart, *ev.NodeID)
	}

	c.provider.RecordNodeExecution(ctx, ev.NodeID.String(), ev.NodeType, duration, success)

	if span, ok := c.nodeSpans[*ev.NodeID]; ok {
		if success {
			span.SetStatus(codes.Ok, "node completed")
		} else {
			span.RecordError(newPlainError(errMsg))
			span.SetStatus(codes.Error, errMsg)
		}
		span.End()
		delete(c.nodeSpans, *ev.NodeID)
	}
}

type plainError string

func (e plainError) Error() string { return string(e) }

func newPlainError(msg string) error { return plainError(msg) }
