package operations

import (
	"time"

	"tmdbcli/internal/analysis"
	"tmdbcli/internal/cleaning"
)

// operation Step identifiers
const (
	StageIDLoad      = "load"
	StageIDClean     = "clean"
	StageIDTransform = "transform"
	StageIDAnalyze   = "analyze"
	StageIDExport    = "export"
	StageIDReport    = "report"
)

// operation Step names
const (
	StageNameLoad      = "Load Movies"
	StageNameClean     = "Clean Movies"
	StageNameTransform = "Transform Movies"
	StageNameAnalyze   = "Analyze Movies"
	StageNameExport    = "Export Cleaned CSV"
	StageNameReport    = "Write Report"
)

// Default timeouts
const (
	DefaultStageTimeout = 10 * time.Minute
)

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	// ID is used as run and trace ID. A UUID is generated when empty.
	ID string `json:"id"`
}

// OperationResponse summarizes a finished pipeline run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Files    []string              `json:"files,omitempty"`
	Cleaning cleaning.Report       `json:"cleaning"`
	Issues   int                   `json:"issues"`
	Report   *analysis.Report      `json:"-"`
	Error    string                `json:"error,omitempty"`
}
