// Package telemetry provides OpenTelemetry tracing and Prometheus metrics
// for workflow execution, fed by a Collector that subscribes to the
// eventbus rather than receiving a synchronous observer callback.
//
//	provider, _ := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
//	collector := telemetry.NewCollector(provider)
//	go collector.Run(ctx, bus.Subscribe())
package telemetry
