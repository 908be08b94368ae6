// Command flowctl loads a workflow declaration from a JSON file, runs it
// to completion, and prints the resulting ExecutionResult.
//
// Usage:
//
//	flowctl -workflow path/to/workflow.json [flags]
//
// Flags:
//
//	-workflow string
//	    Path to a workflow JSON file (required)
//	-input string
//	    Path to a JSON file of initial inputs, as a {"port": value} object
//	-addr string
//	    Address the Prometheus /metrics endpoint listens on (default ":9090")
//	-log-level string
//	    Minimum log level: debug, info, warn, error (default "info")
//
// While a workflow is running, flowctl serves Prometheus metrics on
// -addr and shuts that server down gracefully on SIGINT/SIGTERM, the
// same way the run itself is cancelled by those signals.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowforge/flowengine/pkg/config"
	"github.com/flowforge/flowengine/pkg/executor"
	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/nodes"
	"github.com/flowforge/flowengine/pkg/runtime"
	"github.com/flowforge/flowengine/pkg/telemetry"
	"github.com/flowforge/flowengine/pkg/value"
	"github.com/flowforge/flowengine/pkg/workflow"
)

func main() {
	workflowPath := flag.String("workflow", "", "Path to a workflow JSON file (required)")
	inputPath := flag.String("input", "", "Path to a JSON file of initial inputs")
	addr := flag.String("addr", ":9090", "Address the /metrics endpoint listens on")
	logLevel := flag.String("log-level", "info", "Minimum log level: debug, info, warn, error")
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "flowctl: -workflow is required")
		os.Exit(2)
	}

	log := logging.New(logging.Config{Level: *logLevel, Output: os.Stdout})

	wf, err := loadWorkflow(*workflowPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: loading workflow: %v\n", err)
		os.Exit(1)
	}

	inputs, err := loadInputs(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: loading inputs: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: initializing telemetry: %v\n", err)
		os.Exit(1)
	}
	defer provider.Shutdown(context.Background())

	rt := runtime.NewWithConfig(config.Default(), log)
	registerNodes(rt)

	collector := telemetry.NewCollector(provider)
	go collector.Run(ctx, rt.SubscribeEvents())

	metricsServer := &http.Server{Addr: *addr, Handler: promhttp.Handler()}
	go func() {
		log.Infof("metrics server listening on %s", *addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	log.WithWorkflowID(wf.ID).WithField("workflow_name", wf.Name).Info("executing workflow")

	result, err := rt.Execute(ctx, wf, inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: execution failed: %v\n", err)
		printResult(result)
		os.Exit(1)
	}

	printResult(result)
}

// registerNodes wires the engine's illustrative node catalog into rt. A
// host embedding the engine for its own domain registers its own node
// types here instead.
func registerNodes(rt *runtime.Runtime) {
	reg := rt.Registry()
	reg.Register(nodes.DebugLogFactory{})
	reg.Register(nodes.DelayFactory{})
	reg.Register(nodes.ExpressionFactory{})
	reg.Register(nodes.SchemaValidatorFactory{})
	reg.Register(nodes.NewHTTPRequestFactory())
}

func loadWorkflow(path string) (*workflow.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf workflow.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workflow JSON: %w", err)
	}
	return &wf, nil
}

func loadInputs(path string) (map[string]value.Value, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs map[string]value.Value
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}
	return inputs, nil
}

func printResult(result *executor.ExecutionResult) {
	if result == nil {
		return
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: marshaling result: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
