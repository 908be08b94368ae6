package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/config"
	"github.com/flowforge/flowengine/pkg/eventbus"
	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/graph"
	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

// Executor runs workflows. It holds no per-run state; everything about
// one execution lives on the stack of a single Execute call, so an
// Executor is safe to reuse and to share across concurrently running
// workflows.
type Executor struct {
	cfg *config.Config
	log *logging.Logger
}

// New creates an Executor. A nil cfg or log falls back to defaults.
func New(cfg *config.Config, log *logging.Logger) *Executor {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.New(logging.DefaultConfig())
	}
	return &Executor{cfg: cfg, log: log}
}

// Execute runs wf to completion: it validates the workflow declaration,
// validates the graph, instantiates and initializes every node from reg,
// then drives the scheduling loop, emitting ExecutionEvents onto bus
// throughout. The returned ExecutionResult is always populated, including
// on failure; the returned error is non-nil only when the run as a whole
// failed (a structural rejection, an instantiation failure, or a node
// failure under StopWorkflow/RetryWorkflow error handling).
// ExecutionResult.Success is false on any node failure, even one that
// ContinueOnError absorbed, since runErr alone only reflects a run-ending
// failure.
func (e *Executor) Execute(
	ctx context.Context,
	wf *workflow.Workflow,
	reg *registry.Registry,
	bus *eventbus.Bus,
	initialInputs map[string]value.Value,
) (*ExecutionResult, error) {
	executionID := uuid.New()
	total := len(wf.Nodes)

	emptyResult := &ExecutionResult{
		ExecutionID: executionID,
		Outputs:     map[uuid.UUID]map[string]value.Value{},
		TotalNodes:  total,
	}

	if err := wf.Validate(); err != nil {
		return emptyResult, err
	}
	if err := e.checkSizeLimits(wf); err != nil {
		return emptyResult, err
	}

	g := graph.New(wf.Nodes, wf.Connections)
	if _, err := g.TopologicalSort(); err != nil {
		return emptyResult, err
	}

	instances := make(map[uuid.UUID]node.Node, total)
	defer e.shutdownAll(instances)

	for _, spec := range wf.Nodes {
		n, err := reg.CreateNode(spec.NodeType, spec.Config)
		if err != nil {
			return emptyResult, err
		}
		if v, ok := n.(node.ConfigValidator); ok {
			if err := v.ValidateConfig(spec.Config); err != nil {
				return emptyResult, err
			}
		}
		if init, ok := n.(node.Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				return emptyResult, flowerr.InitializationFailed(err.Error())
			}
		}
		instances[spec.ID] = n
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	start := time.Now()
	bus.Emit(eventbus.ExecutionEvent{
		Type:        eventbus.EventWorkflowStarted,
		ExecutionID: executionID,
		Timestamp:   start,
	})

	outputs, completedCount, anyFailure, runErr := e.runDAG(runCtx, cancelRun, wf, g, instances, initialInputs, bus, executionID)

	success := runErr == nil && !anyFailure
	bus.Emit(eventbus.ExecutionEvent{
		Type:        eventbus.EventWorkflowCompleted,
		ExecutionID: executionID,
		Success:     success,
		DurationMS:  time.Since(start).Milliseconds(),
		Timestamp:   time.Now(),
	})

	return &ExecutionResult{
		ExecutionID:    executionID,
		Outputs:        outputs,
		CompletedNodes: completedCount,
		TotalNodes:     total,
		Success:        success,
	}, runErr
}

// runDAG is the continuous ready-set scheduling loop: nodes become
// ready once every predecessor has settled, and dispatched nodes run
// concurrently up to the workflow's (or, failing that, the executor's
// default) parallelism bound. It returns once no node is ready and none
// is running.
func (e *Executor) runDAG(
	runCtx context.Context,
	cancelRun context.CancelFunc,
	wf *workflow.Workflow,
	g *graph.Graph,
	instances map[uuid.UUID]node.Node,
	initialInputs map[string]value.Value,
	bus *eventbus.Bus,
	executionID uuid.UUID,
) (map[uuid.UUID]map[string]value.Value, int, bool, error) {
	maxParallel := wf.Settings.MaxParallelNodes
	if maxParallel <= 0 {
		maxParallel = e.cfg.MaxParallelNodes
	}
	if maxParallel <= 0 {
		maxParallel = 1
	}

	nodeTimeout := e.cfg.DefaultNodeTimeout
	if wf.Settings.MaxExecutionTimeMS != nil {
		nodeTimeout = time.Duration(*wf.Settings.MaxExecutionTimeMS) * time.Millisecond
	}

	settled := make(map[uuid.UUID]struct{}, len(wf.Nodes))
	running := make(map[uuid.UUID]struct{}, maxParallel)
	outputs := make(map[uuid.UUID]map[string]value.Value, len(wf.Nodes))
	results := make(chan nodeResult)

	var stopErr error
	var anyFailure bool
	runningCount := 0

	for {
		if stopErr == nil {
			for _, id := range readyNodes(wf, g, settled, running) {
				if runningCount >= maxParallel {
					break
				}

				spec := wf.FindNode(id)
				inputs := collectInputs(g, id, outputs, initialInputs)

				nid := id
				bus.Emit(eventbus.ExecutionEvent{
					Type:        eventbus.EventNodeStarted,
					ExecutionID: executionID,
					NodeID:      &nid,
					NodeType:    spec.NodeType,
					Timestamp:   time.Now(),
				})

				running[id] = struct{}{}
				runningCount++
				go e.dispatchNode(runCtx, executionID, *spec, instances[id], inputs, nodeTimeout, bus, results)
			}
		}

		if runningCount == 0 {
			break
		}

		res := <-results
		runningCount--
		delete(running, res.id)
		settled[res.id] = struct{}{}

		if res.err == nil {
			if stopErr == nil {
				outputs[res.id] = res.output.Outputs
			}
			continue
		}
		if stopErr != nil {
			// A stop is already in effect; this result belongs to a node
			// that was already running when it was triggered.
			continue
		}

		anyFailure = true

		switch wf.Settings.OnError.Mode {
		case workflow.ContinueOnError:
			continue
		case workflow.RetryWorkflow:
			e.log.WithNodeID(res.id).
				Warn("RetryWorkflow error handling is not implemented; treating as StopWorkflow")
			fallthrough
		default: // StopWorkflow, and any unrecognized mode
			stopErr = res.err
			cancelRun()
		}
	}

	return outputs, len(settled), anyFailure, stopErr
}

// checkSizeLimits rejects a workflow declaration that exceeds the
// executor's configured node/edge bounds, before any graph construction
// or node instantiation is attempted.
func (e *Executor) checkSizeLimits(wf *workflow.Workflow) error {
	if e.cfg.MaxWorkflowNodes > 0 && len(wf.Nodes) > e.cfg.MaxWorkflowNodes {
		return flowerr.Invalid(fmt.Sprintf("workflow has %d nodes, exceeding the configured limit of %d", len(wf.Nodes), e.cfg.MaxWorkflowNodes))
	}
	if e.cfg.MaxWorkflowEdges > 0 && len(wf.Connections) > e.cfg.MaxWorkflowEdges {
		return flowerr.Invalid(fmt.Sprintf("workflow has %d connections, exceeding the configured limit of %d", len(wf.Connections), e.cfg.MaxWorkflowEdges))
	}
	return nil
}

func (e *Executor) shutdownAll(instances map[uuid.UUID]node.Node) {
	for id, n := range instances {
		s, ok := n.(node.Shutdowner)
		if !ok {
			continue
		}
		if err := s.Shutdown(context.Background()); err != nil {
			e.log.WithNodeID(id).WithError(err).Warn("node shutdown failed")
		}
	}
}
