package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/config"
	"github.com/flowforge/flowengine/pkg/eventbus"
	"github.com/flowforge/flowengine/pkg/executor"
	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// Runtime is the facade a host application holds onto: a shared node
// registry, event bus, and executor, plus a table of workflows that
// have been registered for execution by ID.
type Runtime struct {
	registry *registry.Registry
	executor *executor.Executor
	bus      *eventbus.Bus
	log      *logging.Logger

	mu        sync.RWMutex
	workflows map[uuid.UUID]*workflow.Workflow
}

// New creates a Runtime with a fresh registry and the engine's default
// configuration.
func New(log *logging.Logger) *Runtime {
	return NewWithConfig(config.Default(), log)
}

// NewWithConfig creates a Runtime with a fresh registry, sized per cfg.
func NewWithConfig(cfg *config.Config, log *logging.Logger) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.New(logging.DefaultConfig())
	}
	return NewWithRegistry(registry.New(log), cfg, log)
}

// NewWithRegistry creates a Runtime around a pre-populated registry, for
// hosts that build up their node catalog before constructing a Runtime.
func NewWithRegistry(reg *registry.Registry, cfg *config.Config, log *logging.Logger) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.New(logging.DefaultConfig())
	}
	return &Runtime{
		registry:  reg,
		executor:  executor.New(cfg, log),
		bus:       eventbus.New(cfg.EventBusCapacity, log),
		log:       log,
		workflows: make(map[uuid.UUID]*workflow.Workflow),
	}
}

// Registry returns the node registry, for registering node factories
// before any workflow runs.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Bus returns the event bus, for direct subscription outside of
// SubscribeEvents (e.g. to attach a telemetry collector or a mirror).
func (r *Runtime) Bus() *eventbus.Bus { return r.bus }

// RegisterWorkflow stores wf so it can later be run via ExecuteWorkflow.
func (r *Runtime) RegisterWorkflow(wf *workflow.Workflow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[wf.ID] = wf
}

// ExecuteWorkflow runs a previously registered workflow by ID.
func (r *Runtime) ExecuteWorkflow(ctx context.Context, workflowID uuid.UUID, inputs map[string]value.Value) (*executor.ExecutionResult, error) {
	r.mu.RLock()
	wf, ok := r.workflows[workflowID]
	r.mu.RUnlock()
	if !ok {
		return nil, flowerr.NotFound("workflow " + workflowID.String())
	}
	return r.Execute(ctx, wf, inputs)
}

// Execute runs wf directly, without requiring prior registration.
func (r *Runtime) Execute(ctx context.Context, wf *workflow.Workflow, inputs map[string]value.Value) (*executor.ExecutionResult, error) {
	return r.executor.Execute(ctx, wf, r.registry, r.bus, inputs)
}

// SubscribeEvents returns a new independent Receiver of execution events.
func (r *Runtime) SubscribeEvents() *eventbus.Receiver {
	return r.bus.Subscribe()
}
