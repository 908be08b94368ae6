// Package graph builds the directed graph induced by a workflow's
// connections and performs topological sort / cycle detection over it.
// Adapted from the teacher's Kahn's-algorithm implementation, retargeted
// from its flat Node/Edge model to uuid.UUID-keyed NodeSpec/Connection.
package graph

import (
	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// Graph represents a workflow's node/connection structure as a DAG over
// node IDs. Per-port routing is read from the connections separately
// (see InputEdges/OutputEdges); the sort and Predecessors only reason
// about node-level structure.
type Graph struct {
	nodeIDs     []uuid.UUID
	connections []workflow.Connection
}

// New builds a Graph over the given nodes and connections.
func New(nodes []workflow.NodeSpec, connections []workflow.Connection) *Graph {
	ids := make([]uuid.UUID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return &Graph{nodeIDs: ids, connections: connections}
}

// TopologicalSort performs Kahn's algorithm over the node graph. Order
// among zero-in-degree ("orphan") nodes is deterministic (ties broken by
// UUID string order), matching the teacher's insertion-sort tie-break.
//
// Returns flowerr's CyclicDependency if no full ordering exists, or
// NodeNotFound if a connection references an ID outside the node set.
func (g *Graph) TopologicalSort() ([]uuid.UUID, error) {
	numNodes := len(g.nodeIDs)
	if numNodes == 0 {
		return []uuid.UUID{}, nil
	}

	inDegree := make(map[uuid.UUID]int, numNodes)
	adjacency := make(map[uuid.UUID][]uuid.UUID, numNodes)
	known := make(map[uuid.UUID]struct{}, numNodes)
	for _, id := range g.nodeIDs {
		inDegree[id] = 0
		known[id] = struct{}{}
	}

	for _, c := range g.connections {
		if _, ok := known[c.FromNode]; !ok {
			return nil, flowerr.NodeNotFound(c.FromNode.String())
		}
		if _, ok := known[c.ToNode]; !ok {
			return nil, flowerr.NodeNotFound(c.ToNode.String())
		}
		adjacency[c.FromNode] = append(adjacency[c.FromNode], c.ToNode)
		inDegree[c.ToNode]++
	}

	orphans := make([]uuid.UUID, 0, numNodes)
	for id, degree := range inDegree {
		if degree == 0 {
			orphans = append(orphans, id)
		}
	}
	insertionSortUUIDs(orphans)

	queue := make([]uuid.UUID, numNodes)
	queueStart, queueEnd := 0, len(orphans)
	copy(queue, orphans)

	order := make([]uuid.UUID, 0, numNodes)
	for queueStart < queueEnd {
		current := queue[queueStart]
		queueStart++
		order = append(order, current)

		neighbors := adjacency[current]
		for _, neighbor := range neighbors {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue[queueEnd] = neighbor
				queueEnd++
			}
		}
	}

	if len(order) != numNodes {
		return nil, flowerr.CyclicDependency()
	}
	return order, nil
}

// insertionSortUUIDs sorts by string representation in place; fast enough
// for the small orphan sets a workflow's entry nodes typically form.
func insertionSortUUIDs(ids []uuid.UUID) {
	for i := 1; i < len(ids); i++ {
		key := ids[i]
		j := i - 1
		for j >= 0 && ids[j].String() > key.String() {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = key
	}
}

// InputEdges returns every connection terminating at nodeID, in
// declaration order (the order Connections were supplied in).
func (g *Graph) InputEdges(nodeID uuid.UUID) []workflow.Connection {
	var edges []workflow.Connection
	for _, c := range g.connections {
		if c.ToNode == nodeID {
			edges = append(edges, c)
		}
	}
	return edges
}

// OutputEdges returns every connection originating at nodeID.
func (g *Graph) OutputEdges(nodeID uuid.UUID) []workflow.Connection {
	var edges []workflow.Connection
	for _, c := range g.connections {
		if c.FromNode == nodeID {
			edges = append(edges, c)
		}
	}
	return edges
}

// Predecessors returns the distinct set of node IDs with an edge into nodeID.
func (g *Graph) Predecessors(nodeID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var preds []uuid.UUID
	for _, c := range g.connections {
		if c.ToNode == nodeID {
			if _, ok := seen[c.FromNode]; !ok {
				seen[c.FromNode] = struct{}{}
				preds = append(preds, c.FromNode)
			}
		}
	}
	return preds
}

// DetectCycles reports whether the graph contains a cycle.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}
