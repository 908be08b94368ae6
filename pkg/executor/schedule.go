package executor

import (
	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/graph"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// readyNodes returns the IDs of every node that is neither settled nor
// already running and whose predecessors have all settled, in the
// workflow's declared node order (deterministic, and cheap enough for
// the node counts a single workflow run deals with).
func readyNodes(wf *workflow.Workflow, g *graph.Graph, settled, running map[uuid.UUID]struct{}) []uuid.UUID {
	var ready []uuid.UUID
	for _, spec := range wf.Nodes {
		if _, done := settled[spec.ID]; done {
			continue
		}
		if _, inFlight := running[spec.ID]; inFlight {
			continue
		}
		if predecessorsSettled(g, spec.ID, settled) {
			ready = append(ready, spec.ID)
		}
	}
	return ready
}

func predecessorsSettled(g *graph.Graph, nodeID uuid.UUID, settled map[uuid.UUID]struct{}) bool {
	for _, pred := range g.Predecessors(nodeID) {
		if _, ok := settled[pred]; !ok {
			return false
		}
	}
	return true
}

// collectInputs builds a node's input map from the initial inputs (when
// it has no predecessors) and the outputs of its already-settled
// predecessors, applying last-write-wins by connection declaration
// order when more than one connection targets the same input port.
func collectInputs(g *graph.Graph, nodeID uuid.UUID, outputs map[uuid.UUID]map[string]value.Value, initialInputs map[string]value.Value) map[string]value.Value {
	edges := g.InputEdges(nodeID)
	inputs := make(map[string]value.Value, len(edges)+len(initialInputs))

	if len(edges) == 0 {
		for k, v := range initialInputs {
			inputs[k] = v
		}
		return inputs
	}

	for _, c := range edges {
		srcOutputs, ok := outputs[c.FromNode]
		if !ok {
			continue
		}
		v, ok := srcOutputs[c.FromPort]
		if !ok {
			continue
		}
		inputs[c.ToPort] = v
	}
	return inputs
}
