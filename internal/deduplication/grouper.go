package deduplication

import (
	"strconv"
	"time"

	"github.com/steveyegge/fuzzygroup/internal/types"
)

// Grouper is the streaming grouping engine. It consumes records one at a
// time, in the order given, and decides each record's group using only the
// representatives seen so far. Earlier decisions are never revisited, so the
// grouping is deterministic for a given order but not transitive across the
// whole input.
//
// A Grouper exclusively owns its Registry and is not safe for concurrent use.
type Grouper struct {
	registry *Registry
	groups   []types.Group
	result   GroupingResult
}

// NewGrouper creates a grouper with an empty registry using policy.
func NewGrouper(policy Policy) *Grouper {
	return &Grouper{registry: NewRegistry(policy)}
}

// Add processes a single record value. It returns the record's group id, or
// ok=false when the value is empty and the record was skipped.
func (g *Grouper) Add(recordID, value string) (id types.GroupID, ok bool) {
	g.result.Stats.TotalRecords++

	id, ok = g.registry.LookupOrRegister(value)
	if !ok {
		g.result.Skipped = append(g.result.Skipped, recordID)
		g.result.Stats.SkippedRecords++
		return 0, false
	}

	if int(id) > len(g.groups) {
		g.groups = append(g.groups, types.Group{ID: id, Representative: value})
	} else {
		g.result.Stats.DuplicateRecords++
	}
	g.groups[id-1].Members = append(g.groups[id-1].Members, recordID)

	g.result.Assignments = append(g.result.Assignments, types.Assignment{RecordID: recordID, GroupID: id})
	g.result.Stats.AssignedRecords++
	return id, true
}

// Result returns the grouping so far. The returned value shares no state
// with the grouper.
func (g *Grouper) Result() *GroupingResult {
	res := g.result
	res.Assignments = append([]types.Assignment(nil), g.result.Assignments...)
	res.Skipped = append([]string(nil), g.result.Skipped...)
	res.Groups = make([]types.Group, len(g.groups))
	for i, grp := range g.groups {
		grp.Members = append([]string(nil), grp.Members...)
		res.Groups[i] = grp
	}
	res.Stats.GroupsCreated = g.registry.Len()
	res.Stats.Comparisons = g.registry.Comparisons()
	return &res
}

// Registry exposes the grouper's registry for inspection.
func (g *Grouper) Registry() *Registry { return g.registry }

// GroupRecords runs a fresh grouping pass over records using field as the
// value to deduplicate.
func GroupRecords(policy Policy, records []*types.Record, field string) *GroupingResult {
	start := time.Now()
	g := NewGrouper(policy)
	for _, rec := range records {
		g.Add(rec.ID, rec.GroupValue(field))
	}
	res := g.Result()
	res.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()
	return res
}

// GroupValues groups bare values; record ids are the value indices ("0", "1", ...).
// It returns the group id of each value, 0 for skipped values.
func GroupValues(policy Policy, values []string) []types.GroupID {
	g := NewGrouper(policy)
	ids := make([]types.GroupID, len(values))
	for i, v := range values {
		ids[i], _ = g.Add(strconv.Itoa(i), v)
	}
	return ids
}
