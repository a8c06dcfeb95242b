package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tmdbcli/internal/analysis"
	"tmdbcli/internal/cleaning"
	"tmdbcli/internal/config"
	"tmdbcli/internal/dataset"
	"tmdbcli/internal/exporter"
	"tmdbcli/internal/infrastructure"
	"tmdbcli/internal/transform"
)

// NewPipelineRegistry registers the six pipeline steps in execution order
func NewPipelineRegistry(cfg config.PipelineConfig, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := transform.ParseMoneyMode(cfg.MoneyMode)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	steps := []Step{
		NewLoadStage(cfg.InputPath, cfg.Sheet, logger),
		NewCleanStage(logger),
		NewTransformStage(transform.Options{MoneyMode: mode}, logger),
		NewAnalyzeStage(analysis.Options{TopN: cfg.TopN, FrequentN: cfg.FrequentN}, logger),
		NewExportStage(cfg.OutputPath, cfg.BOM, logger),
		NewReportStage(cfg.ReportPath, cfg.JSONPath, logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// stageLogger creates a logger with Step context
func stageLogger(logger *slog.Logger, id string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", id))
}

// requireSnapshot fails a step whose input snapshot was never produced
func requireSnapshot(ok bool, snapshot, producer string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%s snapshot missing: step %s has not run", snapshot, producer)
}

// LoadStage reads the source export into the raw snapshot
type LoadStage struct {
	BaseStage
	path   string
	sheet  string
	logger *slog.Logger
}

// NewLoadStage creates a new load Step. Paths ending in .xlsx are read from
// sheet, or the first sheet when sheet is empty.
func NewLoadStage(path, sheet string, logger *slog.Logger) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad),
		path:      path,
		sheet:     sheet,
		logger:    stageLogger(logger, StageIDLoad),
	}
}

// Execute loads the input file
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	table, err := dataset.Load(s.path, dataset.ReadOptions{Sheet: s.sheet})
	if err != nil {
		return err
	}

	state.Raw = table
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("rows", table.Len())
		stepState.SetMetadata("columns", table.Width())
	}
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"input.path":    s.path,
		"input.rows":    table.Len(),
		"input.columns": table.Width(),
	})

	s.logger.InfoContext(ctx, "Loaded movie table",
		slog.String("path", s.path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", table.Width()))
	return nil
}

// CleanStage drops unused columns, duplicate rows and incomplete rows
type CleanStage struct {
	BaseStage
	cleaner *cleaning.Cleaner
}

// NewCleanStage creates a new clean Step
func NewCleanStage(logger *slog.Logger) *CleanStage {
	return &CleanStage{
		BaseStage: NewBaseStage(StageIDClean, StageNameClean),
		cleaner:   cleaning.NewCleaner(stageLogger(logger, StageIDClean)),
	}
}

// Execute cleans the raw snapshot
func (s *CleanStage) Execute(ctx context.Context, state *OperationState) error {
	if err := requireSnapshot(state.Raw.Width() > 0, "raw", StageIDLoad); err != nil {
		return err
	}

	cleaned, report, err := s.cleaner.Clean(state.Raw)
	if err != nil {
		return err
	}

	state.Cleaned = cleaned
	state.CleaningReport = report
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("rows_out", report.RowsOut)
		stepState.SetMetadata("duplicates_removed", report.DuplicatesRemoved)
		stepState.SetMetadata("missing_removed", report.MissingRemoved)
	}
	infrastructure.AddSpanEvent(ctx, "cleaned", map[string]interface{}{
		"rows_in":            report.RowsIn,
		"rows_out":           report.RowsOut,
		"duplicates_removed": report.DuplicatesRemoved,
		"missing_removed":    report.MissingRemoved,
	})
	return nil
}

// TransformStage reshapes the cleaned table and coerces it into typed records
type TransformStage struct {
	BaseStage
	transformer *transform.Transformer
	logger      *slog.Logger
}

// NewTransformStage creates a new transform Step
func NewTransformStage(opts transform.Options, logger *slog.Logger) *TransformStage {
	logger = stageLogger(logger, StageIDTransform)
	return &TransformStage{
		BaseStage:   NewBaseStage(StageIDTransform, StageNameTransform),
		transformer: transform.NewTransformer(opts, logger),
		logger:      logger,
	}
}

// Execute transforms the cleaned snapshot. Records that break domain
// constraints are reported but kept.
func (s *TransformStage) Execute(ctx context.Context, state *OperationState) error {
	if err := requireSnapshot(state.Cleaned.Width() > 0, "cleaned", StageIDClean); err != nil {
		return err
	}

	transformed, err := s.transformer.Transform(state.Cleaned)
	if err != nil {
		return err
	}

	records, err := transform.Records(transformed)
	if err != nil {
		return err
	}

	issues := transform.Validate(records)
	for _, issue := range issues {
		s.logger.WarnContext(ctx, "Movie record failed validation",
			slog.Int("row", issue.Row),
			slog.Int64("id", issue.ID),
			slog.String("field", issue.Field),
			slog.String("rule", issue.Rule))
	}

	state.Transformed = transformed
	state.Records = records
	state.Issues = issues
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("records", len(records))
		stepState.SetMetadata("issues", len(issues))
	}
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"records": len(records),
		"issues":  len(issues),
	})
	return nil
}

// AnalyzeStage runs the report queries over the typed records
type AnalyzeStage struct {
	BaseStage
	opts   analysis.Options
	logger *slog.Logger
}

// NewAnalyzeStage creates a new analyze Step
func NewAnalyzeStage(opts analysis.Options, logger *slog.Logger) *AnalyzeStage {
	return &AnalyzeStage{
		BaseStage: NewBaseStage(StageIDAnalyze, StageNameAnalyze),
		opts:      opts,
		logger:    stageLogger(logger, StageIDAnalyze),
	}
}

// Execute builds the analysis report
func (s *AnalyzeStage) Execute(ctx context.Context, state *OperationState) error {
	if err := requireSnapshot(state.Transformed.Width() > 0, "transformed", StageIDTransform); err != nil {
		return err
	}

	report, err := analysis.Run(state.Records, s.opts)
	if err != nil {
		return err
	}
	state.Report = &report

	s.logger.InfoContext(ctx, "Analysis complete",
		slog.Int("movies", report.Movies),
		slog.Int("genres", len(report.GenreDistribution)),
		slog.Int("years", len(report.YearlyRevenue)))
	return nil
}

// ExportStage writes the transformed table as CSV
type ExportStage struct {
	BaseStage
	path   string
	writer *exporter.CSVWriter
}

// NewExportStage creates a new export Step
func NewExportStage(path string, bom bool, logger *slog.Logger) *ExportStage {
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, StageNameExport),
		path:      path,
		writer:    exporter.NewCSVWriter(bom, stageLogger(logger, StageIDExport)),
	}
}

// Execute writes the output file
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	if err := requireSnapshot(state.Transformed.Width() > 0, "transformed", StageIDTransform); err != nil {
		return err
	}

	if err := s.writer.WriteTable(s.path, state.Transformed); err != nil {
		return err
	}
	state.AddFile(s.path)
	infrastructure.AddSpanEvent(ctx, "file_written", map[string]interface{}{
		"path": s.path,
		"rows": state.Transformed.Len(),
	})
	return nil
}

// Rollback removes the output file
func (s *ExportStage) Rollback(ctx context.Context, state *OperationState) error {
	return removeWritten(state, s.path)
}

// ReportStage writes the analysis report as a workbook and as JSON. Either
// path may be empty.
type ReportStage struct {
	BaseStage
	workbookPath string
	jsonPath     string
	workbook     *exporter.WorkbookWriter
	logger       *slog.Logger
}

// NewReportStage creates a new report Step
func NewReportStage(workbookPath, jsonPath string, logger *slog.Logger) *ReportStage {
	logger = stageLogger(logger, StageIDReport)
	return &ReportStage{
		BaseStage:    NewBaseStage(StageIDReport, StageNameReport),
		workbookPath: workbookPath,
		jsonPath:     jsonPath,
		workbook:     exporter.NewWorkbookWriter(logger),
		logger:       logger,
	}
}

// Execute writes the configured report files
func (s *ReportStage) Execute(ctx context.Context, state *OperationState) error {
	if s.workbookPath == "" && s.jsonPath == "" {
		s.logger.DebugContext(ctx, "No report paths configured")
		return nil
	}
	if err := requireSnapshot(state.Report != nil, "report", StageIDAnalyze); err != nil {
		return err
	}

	if s.workbookPath != "" {
		if err := s.workbook.Write(s.workbookPath, *state.Report); err != nil {
			return err
		}
		state.AddFile(s.workbookPath)
	}

	if s.jsonPath != "" {
		if err := exporter.WriteReportJSON(s.jsonPath, *state.Report); err != nil {
			return err
		}
		state.AddFile(s.jsonPath)
	}
	return nil
}

// Rollback removes the report files written by this run
func (s *ReportStage) Rollback(ctx context.Context, state *OperationState) error {
	var paths []string
	for _, p := range []string{s.workbookPath, s.jsonPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return removeWritten(state, paths...)
}

// removeWritten deletes the given paths that this run wrote
func removeWritten(state *OperationState, paths ...string) error {
	written := make(map[string]bool)
	for _, f := range state.WrittenFiles() {
		written[f] = true
	}

	for _, p := range paths {
		if !written[p] {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		state.RemoveFile(p)
	}
	return nil
}

// fileKind labels a written file for metrics
func fileKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx":
		return "xlsx"
	case ".json":
		return "json"
	}
	return "other"
}
