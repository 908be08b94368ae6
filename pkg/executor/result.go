package executor

import (
	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/value"
)

// ExecutionResult is the aggregate outcome of one workflow run. It is
// always populated, even when Execute also returns an error: the
// completed/total counts and partial outputs remain inspectable on a
// failed run.
type ExecutionResult struct {
	ExecutionID    uuid.UUID
	Outputs        map[uuid.UUID]map[string]value.Value
	CompletedNodes int
	TotalNodes     int
	Success        bool
}
