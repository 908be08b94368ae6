// Package graph builds the directed graph induced by a workflow's node
// list and connections, and performs topological sort and cycle
// detection over it ahead of execution.
//
// Nodes are identified by uuid.UUID (NodeSpec.ID); connections reference
// nodes by ID and carry the source/target port names the executor uses
// to route values, though Graph itself only reasons about node-level
// ordering.
//
//	g := graph.New(workflow.Nodes, workflow.Connections)
//	order, err := g.TopologicalSort()
//	if err != nil {
//	    // flowerr.KindCyclicDependency or flowerr.KindNodeNotFound
//	}
package graph
