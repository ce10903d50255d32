package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single row of a record table.
// Fields holds only the fields that were requested when the record was read.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Text returns the value of field rendered as text.
// Absent and null fields render as the empty string.
func (r *Record) Text(field string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	switch v := r.Fields[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// GroupValue returns the value of field to group on. Falsy values (absent,
// null, "", 0, false, empty lists) return "" so the record is skipped.
func (r *Record) GroupValue(field string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	switch v := r.Fields[field].(type) {
	case float64:
		if v == 0 {
			return ""
		}
	case int:
		if v == 0 {
			return ""
		}
	case bool:
		if !v {
			return ""
		}
	case []any:
		if len(v) == 0 {
			return ""
		}
	}
	return r.Text(field)
}

// RecordUpdate sets one or more fields on an existing record.
type RecordUpdate struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Validate checks that the update targets a record and changes something
func (u RecordUpdate) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if len(u.Fields) == 0 {
		return fmt.Errorf("update for record %s has no fields", u.ID)
	}
	return nil
}

// GroupID identifies a duplicate group. Ids start at 1 and are allocated in
// order of first appearance of a new representative.
type GroupID int

// String renders the id the way it is stored in the group field ("Group 3").
func (g GroupID) String() string {
	return fmt.Sprintf("Group %d", int(g))
}

// ParseGroupID is the inverse of GroupID.String.
func ParseGroupID(s string) (GroupID, error) {
	var n int
	if _, err := fmt.Sscanf(s, "Group %d", &n); err != nil {
		return 0, fmt.Errorf("invalid group id %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid group id %q: must be >= 1", s)
	}
	return GroupID(n), nil
}

// Assignment pairs a record with the group it was placed in.
type Assignment struct {
	RecordID string  `json:"record_id"`
	GroupID  GroupID `json:"group_id"`
}

// Group is a duplicate group: the representative that started it and the
// records judged duplicates of it, in processing order.
type Group struct {
	ID             GroupID  `json:"id"`
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}
