package operations

import (
	"sync"
	"time"

	"tmdbcli/internal/analysis"
	"tmdbcli/internal/cleaning"
	"tmdbcli/internal/dataset"
	"tmdbcli/internal/transform"
	"tmdbcli/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the state of one pipeline run. Each step reads the
// snapshot produced by the step before it and publishes its own.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Named snapshots
	Raw         dataset.Table        `json:"-"`
	Cleaned     dataset.Table        `json:"-"`
	Transformed dataset.Table        `json:"-"`
	Records     []domain.MovieRecord `json:"-"`
	Report      *analysis.Report     `json:"-"`

	CleaningReport cleaning.Report         `json:"cleaning"`
	Issues         []transform.RecordIssue `json:"issues,omitempty"`

	// Files written by this run, in write order
	Files []string `json:"files,omitempty"`

	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// AddFile records a file written by the run
func (p *OperationState) AddFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Files = append(p.Files, path)
}

// RemoveFile forgets a file after it has been rolled back
func (p *OperationState) RemoveFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.Files[:0]
	for _, f := range p.Files {
		if f != path {
			kept = append(kept, f)
		}
	}
	p.Files = kept
}

// WrittenFiles returns a copy of the files written so far
func (p *OperationState) WrittenFiles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.Files...)
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
