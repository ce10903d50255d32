package deduplication

import (
	"fmt"
	"testing"

	"github.com/steveyegge/fuzzygroup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(values ...string) []*types.Record {
	out := make([]*types.Record, len(values))
	for i, v := range values {
		fields := map[string]any{}
		if v != "" {
			fields["name"] = v
		}
		out[i] = &types.Record{ID: fmt.Sprintf("rec%d", i+1), Fields: fields}
	}
	return out
}

func TestGroupValues(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		values []string
		want   []types.GroupID
	}{
		{
			name:   "exact same value shares a group",
			policy: ExactPolicy(),
			values: []string{"Paris", "Paris"},
			want:   []types.GroupID{1, 1},
		},
		{
			name:   "exact is case sensitive",
			policy: ExactPolicy(),
			values: []string{"Paris", "paris"},
			want:   []types.GroupID{1, 2},
		},
		{
			name:   "ignore case",
			policy: IgnoreCasePolicy(),
			values: []string{"Paris", "PARIS"},
			want:   []types.GroupID{1, 1},
		},
		{
			name:   "ignore case lowers without folding",
			policy: IgnoreCasePolicy(),
			values: []string{"Straße", "STRASSE", "strasse", "STRASSE"},
			want:   []types.GroupID{1, 2, 2, 2},
		},
		{
			name:   "fuzzy threshold 1",
			policy: FuzzyPolicy(1),
			values: []string{"color", "colour"},
			want:   []types.GroupID{1, 1},
		},
		{
			name:   "fuzzy threshold 0",
			policy: FuzzyPolicy(0),
			values: []string{"color", "colour"},
			want:   []types.GroupID{1, 2},
		},
		{
			name:   "ids follow first appearance",
			policy: ExactPolicy(),
			values: []string{"A", "B", "A"},
			want:   []types.GroupID{1, 2, 1},
		},
		{
			name:   "empty values are skipped without consuming ids",
			policy: ExactPolicy(),
			values: []string{"", "A", "", "B"},
			want:   []types.GroupID{0, 1, 0, 2},
		},
		{
			name:   "unknown method gives every value its own group",
			policy: PolicyFor(types.ParseMethod("soundex"), 3),
			values: []string{"A", "A", "A"},
			want:   []types.GroupID{1, 2, 3},
		},
		{
			name:   "fuzzy cat dog cot",
			policy: FuzzyPolicy(1),
			values: []string{"cat", "dog", "cot"},
			want:   []types.GroupID{1, 2, 1},
		},
		{
			name:   "fuzzy dog cat cot",
			policy: FuzzyPolicy(1),
			values: []string{"dog", "cat", "cot"},
			want:   []types.GroupID{1, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupValues(tt.policy, tt.values))
		})
	}
}

func TestGroupingIsOrderDependent(t *testing.T) {
	policy := FuzzyPolicy(1)

	// "abcd" is two edits from the representative "ab", so it starts a
	// second group even though it is one edit from its member "abc".
	split := GroupValues(policy, []string{"ab", "abc", "abcd"})
	assert.Equal(t, []types.GroupID{1, 1, 2}, split)

	// With "abc" first it becomes the representative and bridges both.
	merged := GroupValues(FuzzyPolicy(1), []string{"abc", "ab", "abcd"})
	assert.Equal(t, []types.GroupID{1, 1, 1}, merged)
}

func TestGroupRecords(t *testing.T) {
	recs := records("Acme", "", "ACME", "Globex", "acme")
	res := GroupRecords(IgnoreCasePolicy(), recs, "name")
	require.NoError(t, res.Validate())

	assert.Equal(t, []types.Assignment{
		{RecordID: "rec1", GroupID: 1},
		{RecordID: "rec3", GroupID: 1},
		{RecordID: "rec4", GroupID: 2},
		{RecordID: "rec5", GroupID: 1},
	}, res.Assignments)
	assert.Equal(t, []string{"rec2"}, res.Skipped)

	require.Len(t, res.Groups, 2)
	assert.Equal(t, types.Group{ID: 1, Representative: "Acme", Members: []string{"rec1", "rec3", "rec5"}}, res.Groups[0])
	assert.Equal(t, types.Group{ID: 2, Representative: "Globex", Members: []string{"rec4"}}, res.Groups[1])

	assert.Equal(t, 5, res.Stats.TotalRecords)
	assert.Equal(t, 4, res.Stats.AssignedRecords)
	assert.Equal(t, 1, res.Stats.SkippedRecords)
	assert.Equal(t, 2, res.Stats.GroupsCreated)
	assert.Equal(t, 2, res.Stats.DuplicateRecords)
}

func TestGroupRecordsSkipsFalsyValues(t *testing.T) {
	recs := []*types.Record{
		{ID: "zero", Fields: map[string]any{"name": float64(0)}},
		{ID: "false", Fields: map[string]any{"name": false}},
		{ID: "seven", Fields: map[string]any{"name": float64(7)}},
		{ID: "also-zero", Fields: map[string]any{"name": float64(0)}},
	}

	res := GroupRecords(ExactPolicy(), recs, "name")
	require.NoError(t, res.Validate())
	assert.Equal(t, []types.Assignment{{RecordID: "seven", GroupID: 1}}, res.Assignments)
	assert.Equal(t, []string{"zero", "false", "also-zero"}, res.Skipped)
}

func TestGroupRecordsNeverAssignsEmptyValues(t *testing.T) {
	recs := records("", "", "")
	recs = append(recs, &types.Record{ID: "nil-fields"}, &types.Record{ID: "null", Fields: map[string]any{"name": nil}})

	res := GroupRecords(FuzzyPolicy(3), recs, "name")
	require.NoError(t, res.Validate())
	assert.Empty(t, res.Assignments)
	assert.Empty(t, res.Groups)
	assert.Len(t, res.Skipped, 5)
}

func TestGrouperResultIsASnapshot(t *testing.T) {
	g := NewGrouper(ExactPolicy())
	g.Add("r1", "x")
	snap := g.Result()

	g.Add("r2", "x")
	g.Add("r3", "y")

	assert.Len(t, snap.Assignments, 1)
	assert.Equal(t, []string{"r1"}, snap.Groups[0].Members)
	assert.Len(t, g.Result().Groups, 2)
}

func TestGroupingResultValidate(t *testing.T) {
	valid := func() *GroupingResult {
		return GroupRecords(ExactPolicy(), records("a", "b", "a", ""), "name")
	}

	tests := []struct {
		name     string
		mutate   func(r *GroupingResult)
		errorMsg string
	}{
		{name: "valid", mutate: func(r *GroupingResult) {}},
		{
			name:     "assigned count mismatch",
			mutate:   func(r *GroupingResult) { r.Stats.AssignedRecords++ },
			errorMsg: "stats.assigned_records",
		},
		{
			name:     "groups count mismatch",
			mutate:   func(r *GroupingResult) { r.Stats.GroupsCreated = 5 },
			errorMsg: "stats.groups_created",
		},
		{
			name:     "unknown group",
			mutate:   func(r *GroupingResult) { r.Assignments[0].GroupID = 9 },
			errorMsg: "unknown group",
		},
		{
			name: "assigned twice",
			mutate: func(r *GroupingResult) {
				r.Assignments[1].RecordID = r.Assignments[0].RecordID
			},
			errorMsg: "assigned more than once",
		},
		{
			name:     "group ids out of order",
			mutate:   func(r *GroupingResult) { r.Groups[0].ID, r.Groups[1].ID = 2, 1 },
			errorMsg: "has id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := r.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
