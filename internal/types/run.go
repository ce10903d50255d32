package types

import (
	"fmt"
	"time"
)

// RunKind is the automation a run executed.
type RunKind string

const (
	RunGroup      RunKind = "group"
	RunEntities   RunKind = "entities"
	RunSpellcheck RunKind = "spellcheck"
)

// IsValid checks if the run kind value is valid
func (k RunKind) IsValid() bool {
	switch k {
	case RunGroup, RunEntities, RunSpellcheck:
		return true
	}
	return false
}

// RunStatus is the final outcome of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is the history entry stored for each automation run.
type Run struct {
	ID         string    `json:"id"`
	Table      string    `json:"table"`
	Kind       RunKind   `json:"kind"`
	Method     string    `json:"method,omitempty"`
	Records    int       `json:"records"`
	Groups     int       `json:"groups"`
	Written    int       `json:"written"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Validate checks if the run has valid field values
func (r *Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Table == "" {
		return fmt.Errorf("table is required")
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("invalid run kind: %s", r.Kind)
	}
	if r.Status != RunSucceeded && r.Status != RunFailed {
		return fmt.Errorf("invalid run status: %s", r.Status)
	}
	if r.Status == RunFailed && r.Error == "" {
		return fmt.Errorf("failed runs must record an error")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("finished_at cannot be before started_at")
	}
	return nil
}

// TableInfo summarizes a record table.
type TableInfo struct {
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}
