// Package executor drives one workflow run to completion: it validates
// the graph, instantiates nodes from a registry, and runs a continuous
// ready-set scheduling loop bounded by Settings.MaxParallelNodes,
// emitting ExecutionEvents onto the bus as it goes.
//
//	result, err := executor.New(cfg, log).Execute(ctx, wf, reg, bus, initialInputs)
//
// The scheduling loop is grounded on the original engine's execute_dag:
// nodes become ready when every predecessor has settled, dispatched
// nodes run concurrently up to the configured bound, and a failure's
// effect on the rest of the run is governed by the workflow's
// on_error policy. The concurrency mechanics (semaphore-bounded
// goroutine-per-task dispatch, first-error cancellation) follow the
// teacher's parallel executor.
package executor
