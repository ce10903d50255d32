package deduplication

import (
	"context"
	"fmt"

	"github.com/steveyegge/fuzzygroup/internal/types"
)

// Deduplicator assigns duplicate-group ids to the records of a table.
//
// Example usage:
//
//	job := NewJob(store, cfg)
//	result, err := job.Run(ctx)
//	if err != nil {
//	    log.Printf("Grouping failed after %d writes: %v", result.Written, err)
//	}
//	fmt.Println(CompletionMessage(cfg.Method))
type Deduplicator interface {
	// Run reads the configured table, groups its records, and writes the
	// group ids back. Storage failures abort the run; already written
	// batches are left in place.
	Run(ctx context.Context) (*RunResult, error)
}

// GroupingResult is the outcome of grouping one ordered set of records
type GroupingResult struct {
	// Assignments has one entry per record with a non-empty value, in the
	// order the records were processed
	Assignments []types.Assignment `json:"assignments"`

	// Groups are ordered by id; Groups[i].ID == i+1
	Groups []types.Group `json:"groups"`

	// Skipped lists records whose value was empty
	Skipped []string `json:"skipped,omitempty"`

	// Statistics about the grouping pass
	Stats GroupingStats `json:"stats"`
}

// GroupingStats provides metrics about a grouping pass
type GroupingStats struct {
	// TotalRecords is the number of records processed
	TotalRecords int `json:"total_records"`

	// AssignedRecords is the number of records that received a group
	AssignedRecords int `json:"assigned_records"`

	// SkippedRecords is the number of records with an empty value
	SkippedRecords int `json:"skipped_records"`

	// GroupsCreated is the number of distinct groups
	GroupsCreated int `json:"groups_created"`

	// DuplicateRecords is the number of records that joined an existing group
	DuplicateRecords int `json:"duplicate_records"`

	// Comparisons is the number of representative comparisons made by scans
	Comparisons int `json:"comparisons"`

	// ProcessingTimeMs is the time taken for grouping in milliseconds
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// Validate checks that the result is internally consistent
func (r *GroupingResult) Validate() error {
	if r.Stats.AssignedRecords != len(r.Assignments) {
		return fmt.Errorf("stats.assigned_records (%d) does not match assignments length (%d)",
			r.Stats.AssignedRecords, len(r.Assignments))
	}
	if r.Stats.SkippedRecords != len(r.Skipped) {
		return fmt.Errorf("stats.skipped_records (%d) does not match skipped length (%d)",
			r.Stats.SkippedRecords, len(r.Skipped))
	}
	if r.Stats.GroupsCreated != len(r.Groups) {
		return fmt.Errorf("stats.groups_created (%d) does not match groups length (%d)",
			r.Stats.GroupsCreated, len(r.Groups))
	}
	if total := r.Stats.AssignedRecords + r.Stats.SkippedRecords; r.Stats.TotalRecords != total {
		return fmt.Errorf("stats.total_records (%d) does not match assigned + skipped (%d)",
			r.Stats.TotalRecords, total)
	}
	if dup := r.Stats.AssignedRecords - r.Stats.GroupsCreated; r.Stats.DuplicateRecords != dup {
		return fmt.Errorf("stats.duplicate_records (%d) does not match assigned - groups (%d)",
			r.Stats.DuplicateRecords, dup)
	}

	// Every assignment must name an existing group, and a record may only be
	// assigned once
	seen := make(map[string]bool, len(r.Assignments))
	for _, a := range r.Assignments {
		if a.GroupID < 1 || int(a.GroupID) > len(r.Groups) {
			return fmt.Errorf("assignment for %s references unknown group %d", a.RecordID, a.GroupID)
		}
		if seen[a.RecordID] {
			return fmt.Errorf("record %s is assigned more than once", a.RecordID)
		}
		seen[a.RecordID] = true
	}

	for i, g := range r.Groups {
		if int(g.ID) != i+1 {
			return fmt.Errorf("groups[%d] has id %d, want %d", i, g.ID, i+1)
		}
		if len(g.Members) == 0 {
			return fmt.Errorf("group %d has no members", g.ID)
		}
	}

	return nil
}

// RunResult is the outcome of a full read-group-write run
type RunResult struct {
	// RunID identifies the run in logs
	RunID string `json:"run_id"`

	// Method is the method the run grouped with
	Method types.Method `json:"method"`

	// Grouping is nil if the read failed
	Grouping *GroupingResult `json:"grouping,omitempty"`

	// Written is the number of assignments committed to storage
	Written int `json:"written"`

	// Batches is the number of write calls that succeeded
	Batches int `json:"batches"`

	// DryRun is true when nothing was written by design
	DryRun bool `json:"dry_run"`
}

// CompletionMessage is the human-readable line printed when a run finishes.
func CompletionMessage(method string) string {
	return fmt.Sprintf("Deduplication completed! Group IDs have been assigned using the %q method.", method)
}
