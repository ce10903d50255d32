package deduplication

import "github.com/steveyegge/fuzzygroup/internal/types"

// representative is a value that started a group.
type representative struct {
	value   string
	key     string
	groupID types.GroupID
}

// Registry maps representatives to their group ids for one run.
//
// It is append-only: representatives are never revised or removed, and group
// ids are allocated 1, 2, 3, ... in the order new representatives appear.
// Non-exact policies scan representatives in insertion order and the first
// match wins, so each lookup costs O(groups).
type Registry struct {
	policy Policy
	reps   []representative

	// index is only populated for direct (exact) policies
	index map[string]int

	comparisons int
}

// NewRegistry creates an empty registry using policy for every lookup.
func NewRegistry(policy Policy) *Registry {
	r := &Registry{policy: policy}
	if policy.direct {
		r.index = make(map[string]int)
	}
	return r
}

// Policy returns the registry's matching policy.
func (r *Registry) Policy() Policy { return r.policy }

// Lookup finds the group of the first representative value matches, without
// registering anything.
func (r *Registry) Lookup(value string) (types.GroupID, bool) {
	if value == "" {
		return 0, false
	}
	key := r.policy.key(value)

	if r.index != nil {
		if i, ok := r.index[key]; ok {
			return r.reps[i].groupID, true
		}
		return 0, false
	}

	for _, rep := range r.reps {
		r.comparisons++
		if r.policy.match(key, rep.key) {
			return rep.groupID, true
		}
	}
	return 0, false
}

// LookupOrRegister returns the group for value, registering value as a new
// representative with the next group id when nothing matches.
//
// An empty value is a skip, not an error: ok is false and nothing is
// registered.
func (r *Registry) LookupOrRegister(value string) (id types.GroupID, ok bool) {
	if value == "" {
		return 0, false
	}
	if id, found := r.Lookup(value); found {
		return id, true
	}

	id = types.GroupID(len(r.reps) + 1)
	rep := representative{value: value, key: r.policy.key(value), groupID: id}
	if r.index != nil {
		r.index[rep.key] = len(r.reps)
	}
	r.reps = append(r.reps, rep)
	return id, true
}

// Len returns the number of representatives (and therefore groups).
func (r *Registry) Len() int { return len(r.reps) }

// Comparisons returns how many representative comparisons scans have made.
func (r *Registry) Comparisons() int { return r.comparisons }

// Representative returns the value that started group id.
func (r *Registry) Representative(id types.GroupID) (string, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(r.reps) {
		return "", false
	}
	return r.reps[i].value, true
}
