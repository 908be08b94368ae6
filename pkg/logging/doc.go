// Package logging provides structured logging with context propagation
// for the workflow engine, built on slog.
//
//	logger := logging.New(logging.Config{Level: "info"})
//	logger.WithWorkflowID(wf.ID).
//		WithExecutionID(execID).
//		Info("execution started")
//
// Loggers are immutable; each With* method returns a new *Logger carrying
// the added field, so a base logger can be safely reused across goroutines
// while each call site attaches its own context.
package logging
