package graph

import "errors"

// ErrEmptyGraph is returned by callers that require at least one node;
// Graph itself treats an empty node set as a valid (trivially sorted) DAG.
var ErrEmptyGraph = errors.New("graph has no nodes")
