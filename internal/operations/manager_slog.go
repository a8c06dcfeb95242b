package operations

import (
	"context"
	"log/slog"
	"time"

	"tmdbcli/internal/infrastructure"
)

// logOperationStart logs the start of a operation execution
func (m *Manager) logOperationStart(ctx context.Context, operationID string, steps int) {
	m.logger.InfoContext(ctx, "Operation started",
		slog.String("operation_id", operationID),
		slog.Int("step_count", steps),
		slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))
}

// logOperationComplete logs the completion of a operation execution
func (m *Manager) logOperationComplete(ctx context.Context, operationID string, duration time.Duration, status string, mem infrastructure.MemoryStats) {
	m.logger.InfoContext(ctx, "Operation finished",
		slog.String("operation_id", operationID),
		slog.String("status", status),
		slog.Duration("duration", duration),
		slog.Uint64("heap_alloc", mem.HeapAlloc),
		slog.Uint64("gc_cycles", uint64(mem.NumGC)))
}

// logOperationError logs a operation error
func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "Operation failed",
		slog.String("operation_id", operationID),
		slog.String("failed_step", FailedStep(err)),
		slog.String("error", errorMsg))
}

// logStageStart logs the start of a Step execution
func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.DebugContext(ctx, "Step started",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

// logStageComplete logs the completion of a Step execution
func (m *Manager) logStageComplete(ctx context.Context, operationID, stageID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "Step completed",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.Duration("duration", duration))
}

// logStageError logs a Step error
func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "Step failed",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("error", errorMsg))
}
