// Package operations runs the movie pipeline as an ordered list of steps.
//
// Core Components:
//
// Manager: executes registered steps one after another, records a span and
// metrics per step, and stops at the first failure. Steps that already wrote
// files are rolled back in reverse order, so a failed run leaves no output.
//
// Step: a single unit of work (load, clean, transform, analyze, export,
// report). Steps read and write the named snapshots held by OperationState.
//
// Registry: holds steps in registration order.
//
// Example usage:
//
//	registry, err := operations.NewPipelineRegistry(cfg.Pipeline, logger)
//	if err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, telemetry, nil)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
