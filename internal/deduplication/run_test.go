package deduplication

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/steveyegge/fuzzygroup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory RecordStore that records write calls
type fakeStore struct {
	records  []*types.Record
	readErr  error
	failOn   int
	calls    int
	written  map[string]map[string]any
	sizes    []int
	readArgs []string
}

func newFakeStore(values ...string) *fakeStore {
	s := &fakeStore{written: map[string]map[string]any{}}
	for i, v := range values {
		fields := map[string]any{}
		if v != "" {
			fields["Company"] = v
		}
		s.records = append(s.records, &types.Record{ID: fmt.Sprintf("rec%03d", i), Fields: fields})
	}
	return s
}

func (s *fakeStore) ReadRecords(ctx context.Context, table string, fields []string) ([]*types.Record, error) {
	s.readArgs = append([]string{table}, fields...)
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.records, nil
}

func (s *fakeStore) WriteRecords(ctx context.Context, table string, updates []types.RecordUpdate) error {
	s.calls++
	if s.failOn == s.calls {
		return errors.New("disk full")
	}
	s.sizes = append(s.sizes, len(updates))
	for _, u := range updates {
		s.written[u.ID] = u.Fields
	}
	return nil
}

func TestJobRun(t *testing.T) {
	store := newFakeStore("Acme", "Globex", "", "Acme")
	cfg := validConfig()

	res, err := NewJob(store, cfg).WithLogger(zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"contacts", "Company"}, store.readArgs)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, types.MethodExact, res.Method)
	assert.Equal(t, 3, res.Written)
	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, 2, res.Grouping.Stats.GroupsCreated)

	assert.Equal(t, "Group 1", store.written["rec000"]["Duplicate Group"])
	assert.Equal(t, "Group 2", store.written["rec001"]["Duplicate Group"])
	assert.Equal(t, "Group 1", store.written["rec003"]["Duplicate Group"])
	_, wrote := store.written["rec002"]
	assert.False(t, wrote, "empty values must never be written")
}

func TestJobRunBatches(t *testing.T) {
	values := make([]string, 120)
	for i := range values {
		values[i] = fmt.Sprintf("value-%d", i)
	}
	store := newFakeStore(values...)

	res, err := NewJob(store, validConfig()).WithLogger(zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{50, 50, 20}, store.sizes)
	assert.Equal(t, 120, res.Written)
	assert.Equal(t, 3, res.Batches)
}

func TestJobRunDryRun(t *testing.T) {
	store := newFakeStore("a", "a")
	cfg := validConfig()
	cfg.DryRun = true

	res, err := NewJob(store, cfg).WithLogger(zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Zero(t, store.calls)
	assert.Equal(t, 1, res.Grouping.Stats.GroupsCreated)
}

func TestJobRunReadFailure(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("connection reset")

	res, err := NewJob(store, validConfig()).WithLogger(zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.readErr)
	assert.Nil(t, res.Grouping)
	assert.Zero(t, store.calls)
}

func TestJobRunWriteFailureKeepsCommittedBatches(t *testing.T) {
	values := make([]string, 120)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	store := newFakeStore(values...)
	store.failOn = 3

	res, err := NewJob(store, validConfig()).WithLogger(zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 100, res.Written)
	assert.Equal(t, 2, res.Batches)
	assert.Len(t, store.written, 100)
}

func TestJobRunUnknownMethod(t *testing.T) {
	store := newFakeStore("x", "x", "x")
	cfg := validConfig()
	cfg.Method = "soundex"

	res, err := NewJob(store, cfg).WithLogger(zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.MethodUnknown, res.Method)
	assert.Equal(t, 3, res.Grouping.Stats.GroupsCreated)
}

func TestJobRunCaseInsensitiveAlias(t *testing.T) {
	store := newFakeStore("Paris", "PARIS")
	cfg := validConfig()
	cfg.Method = "case-insensitive"

	res, err := NewJob(store, cfg).WithLogger(zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.MethodIgnoreCase, res.Method)
	assert.Equal(t, "Group 1", store.written["rec001"]["Duplicate Group"])
}

func TestCompletionMessage(t *testing.T) {
	assert.Equal(t,
		`Deduplication completed! Group IDs have been assigned using the "fuzzy" method.`,
		CompletionMessage("fuzzy"))
}
