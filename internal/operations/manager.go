package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tmdbcli/internal/config"
	"tmdbcli/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry  *Registry
	config    *Config
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
}

// NewManager creates a new operation manager. A nil telemetry gets no-op
// tracing and metrics.
func NewManager(registry *Registry, telemetry *infrastructure.Telemetry, cfg *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if telemetry == nil {
		// Disabled telemetry only builds no-op instruments and cannot fail.
		telemetry, _ = infrastructure.InitializeTelemetry(config.TelemetryConfig{}, logger)
	}

	return &Manager{
		registry:  registry,
		config:    cfg,
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "operations"),
	}
}

// Execute runs every registered step in order. The first failing step stops
// the run: later steps are skipped and completed steps are rolled back.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	// A run without an ID adopts the caller's trace ID or a fresh one.
	if req.ID == "" {
		ctx = infrastructure.EnsureTraceID(ctx)
		req.ID = infrastructure.GetTraceID(ctx)
	} else {
		ctx = infrastructure.WithTraceID(ctx, req.ID)
	}

	state := NewOperationState(req.ID)

	steps := m.registry.List()
	if len(steps) == 0 {
		err := NewFatalError("no steps registered", nil)
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.telemetry.Tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", req.ID),
			attribute.Int("run.steps", len(steps)),
		),
	)
	defer span.End()

	m.logOperationStart(ctx, req.ID, len(steps))
	state.Start()

	err := m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	if err != nil {
		infrastructure.RecordError(ctx, err)
		m.logOperationError(ctx, req.ID, err)
	}

	mem := m.telemetry.Runtime.Record(ctx)
	m.telemetry.Metrics.RecordRun(ctx, state.Duration(), err == nil)
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.Status), mem)

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			m.logger.WarnContext(ctx, "Operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			err := NewCancellationError(step.ID(), ctxErr)
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return m.rollback(ctx, state, steps[:i], err)
		}

		m.logger.InfoContext(ctx, "Executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("Previous step %s failed", step.ID()))
			return m.rollback(ctx, state, steps[:i+1], err)
		}
	}

	m.logger.InfoContext(ctx, "All steps completed",
		slog.String("operation_id", state.ID))
	return nil
}

// executeStage executes a single Step inside its own span and timeout
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.telemetry.Tracer.Start(stageCtx, "pipeline.step."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
	defer span.End()

	m.logStageStart(stageCtx, state.ID, step.ID())
	filesBefore := len(state.WrittenFiles())

	stepState.Start()
	startTime := time.Now()
	err := step.Execute(stageCtx, state)
	duration := time.Since(startTime)

	m.telemetry.Metrics.RecordStep(ctx, step.ID(), duration, err == nil)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), err)
		case errors.Is(stageCtx.Err(), context.DeadlineExceeded):
			err = NewTimeoutError(step.ID(), timeout.String(), err)
		default:
			err = NewExecutionError(step.ID(), err)
		}
		stepState.Fail(err)
		infrastructure.RecordError(stageCtx, err)
		return err
	}

	stepState.Complete()
	m.recordOutputs(stageCtx, step.ID(), state, filesBefore)
	m.logStageComplete(stageCtx, state.ID, step.ID(), duration)
	return nil
}

// recordOutputs publishes the row and file counts of a finished step
func (m *Manager) recordOutputs(ctx context.Context, stepID string, state *OperationState, filesBefore int) {
	metrics := m.telemetry.Metrics

	switch stepID {
	case StageIDLoad:
		metrics.RecordRows(ctx, stepID, state.Raw.Len())
	case StageIDClean:
		metrics.RecordRows(ctx, stepID, state.Cleaned.Len())
		metrics.RecordDropped(ctx, "duplicate", state.CleaningReport.DuplicatesRemoved)
		metrics.RecordDropped(ctx, "missing", state.CleaningReport.MissingRemoved)
	case StageIDTransform:
		metrics.RecordRows(ctx, stepID, state.Transformed.Len())
		metrics.RecordIssues(ctx, len(state.Issues))
	}

	for _, path := range state.WrittenFiles()[filesBefore:] {
		metrics.RecordFile(ctx, fileKind(path))
	}
}

// skipRemaining marks steps that will not run
func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if stepState := state.GetStage(step.ID()); stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
		}
	}
}

// rollback undoes the given steps in reverse order and returns cause joined
// with any rollback failures
func (m *Manager) rollback(ctx context.Context, state *OperationState, steps []Step, cause error) error {
	if !m.config.RollbackOnError {
		return cause
	}

	// Rollback must run even when ctx was cancelled.
	rbCtx := context.WithoutCancel(ctx)
	errs := []error{cause}

	for i := len(steps) - 1; i >= 0; i-- {
		rb, ok := steps[i].(Rollbacker)
		if !ok {
			continue
		}
		stepID := steps[i].ID()
		stepState := state.GetStage(stepID)

		if err := rb.Rollback(rbCtx, state); err != nil {
			m.logger.ErrorContext(rbCtx, "Rollback failed",
				slog.String("operation_id", state.ID),
				slog.String("step", stepID),
				slog.String("error", err.Error()))
			errs = append(errs, NewRollbackError(stepID, err))
			continue
		}

		m.telemetry.Metrics.RecordRollback(rbCtx, stepID)
		m.logger.InfoContext(rbCtx, "Step rolled back",
			slog.String("operation_id", state.ID),
			slog.String("step", stepID))
		if stepState != nil && stepState.GetStatus() == StepStatusCompleted {
			stepState.RolledBack(fmt.Sprintf("Rolled back after %s failed", FailedStep(cause)))
		}
	}

	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

// createResponse builds the response returned to the caller
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    make(map[string]*StepState, len(state.Steps)),
		Files:    state.WrittenFiles(),
		Cleaning: state.CleaningReport,
		Issues:   len(state.Issues),
		Report:   state.Report,
	}
	for id, s := range state.Steps {
		resp.Steps[id] = s
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
