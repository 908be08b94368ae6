package executor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/eventbus"
	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// nodeResult is what a dispatched node goroutine reports back to the
// driving loop. The driving loop is the only reader/writer of shared
// scheduling state, so nodeResult carries everything it needs to fold
// the outcome in without touching node internals again.
type nodeResult struct {
	id     uuid.UUID
	output *node.Output
	err    error
}

// dispatchNode runs one node to completion, including any retries its
// spec declares, emitting NodeCompleted/NodeFailed on the bus as it
// goes. It is meant to be launched as `go e.dispatchNode(...)`; results
// are reported on out.
func (e *Executor) dispatchNode(
	runCtx context.Context,
	executionID uuid.UUID,
	spec workflow.NodeSpec,
	n node.Node,
	inputs map[string]value.Value,
	nodeTimeout time.Duration,
	bus *eventbus.Bus,
	out chan<- nodeResult,
) {
	nodeCtx, cancel := context.WithCancel(runCtx)
	if nodeTimeout > 0 {
		nodeCtx, cancel = context.WithTimeout(nodeCtx, nodeTimeout)
	}
	defer cancel()

	emitter := bus.NewEmitter(executionID, spec.ID)
	nc := node.NewContext(nodeCtx, spec.ID, inputs, spec.Config, emitter)

	output, err := e.executeWithRetry(nodeCtx, spec, n, nc, nodeTimeout)

	nid := spec.ID
	if err != nil {
		bus.Emit(eventbus.ExecutionEvent{
			Type:        eventbus.EventNodeFailed,
			ExecutionID: executionID,
			NodeID:      &nid,
			Error:       err.Error(),
			Timestamp:   time.Now(),
		})
	} else {
		bus.Emit(eventbus.ExecutionEvent{
			Type:        eventbus.EventNodeCompleted,
			ExecutionID: executionID,
			NodeID:      &nid,
			Outputs:     output.Outputs,
			Timestamp:   time.Now(),
		})
	}

	out <- nodeResult{id: spec.ID, output: output, err: err}
}

// executeWithRetry runs n.Execute once, then retries according to
// spec.RetryPolicy if it declares one. A node with no declared retry
// policy gets exactly one attempt, matching the original engine: retry
// is opt-in per node, not an ambient default applied to every node.
func (e *Executor) executeWithRetry(nodeCtx context.Context, spec workflow.NodeSpec, n node.Node, nc *node.Context, nodeTimeout time.Duration) (*node.Output, error) {
	if spec.RetryPolicy == nil {
		out, err := n.Execute(nodeCtx, nc)
		return out, translateError(nodeCtx, nodeTimeout, err)
	}

	policy := *spec.RetryPolicy
	maxAttempts := policy.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	delay := time.Duration(policy.DelayMS) * time.Millisecond

	var lastErr error
	for attempt := uint32(1); attempt <= maxAttempts; attempt++ {
		out, err := n.Execute(nodeCtx, nc)
		err = translateError(nodeCtx, nodeTimeout, err)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == maxAttempts || nodeCtx.Err() != nil {
			break
		}

		e.log.WithNodeID(spec.ID).
			WithField("attempt", attempt).
			WithError(err).
			Warn("node execution failed, retrying")

		select {
		case <-nodeCtx.Done():
			return nil, translateError(nodeCtx, nodeTimeout, nodeCtx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
	}
	return nil, lastErr
}

// translateError maps a context deadline/cancellation into the engine's
// Timeout/Cancelled error kinds so callers never see a bare
// context.DeadlineExceeded.
func translateError(nodeCtx context.Context, nodeTimeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(nodeCtx.Err(), context.DeadlineExceeded):
		return flowerr.Timeout(int(nodeTimeout.Seconds()))
	case errors.Is(nodeCtx.Err(), context.Canceled):
		return flowerr.Cancelled()
	default:
		return err
	}
}
