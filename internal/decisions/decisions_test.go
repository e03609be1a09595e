package decisions

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/store"
)

func newTestDecisions(t *testing.T) *Decisions {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestCreate_StartsPending(t *testing.T) {
	d := newTestDecisions(t)

	dec, err := d.Create(CreateInput{Title: "adopt hybrid retrieval"})
	require.NoError(t, err)
	assert.Equal(t, store.DecisionPending, dec.Status)
	assert.NotEmpty(t, dec.ID)
}

func TestTransitionStatus_LegalEdgeSucceeds(t *testing.T) {
	d := newTestDecisions(t)
	dec, err := d.Create(CreateInput{Title: "ship feature x"})
	require.NoError(t, err)

	by := "operator"
	updated, err := d.TransitionStatus(dec.ID, store.DecisionDecided, &by)
	require.NoError(t, err)
	assert.Equal(t, store.DecisionDecided, updated.Status)
}

func TestTransitionStatus_IllegalEdgeIsConflict(t *testing.T) {
	d := newTestDecisions(t)
	dec, err := d.Create(CreateInput{Title: "ship feature y"})
	require.NoError(t, err)

	_, err = d.TransitionStatus(dec.ID, store.DecisionImplemented, nil)
	require.Error(t, err)
}

func TestUpdate_PatchesContentWithoutTouchingStatus(t *testing.T) {
	d := newTestDecisions(t)
	dec, err := d.Create(CreateInput{Title: "original title"})
	require.NoError(t, err)

	updated, err := d.Update(UpdateInput{ID: dec.ID, Title: "revised title"})
	require.NoError(t, err)
	assert.Equal(t, "revised title", updated.Title)
	assert.Equal(t, store.DecisionPending, updated.Status)
}

func TestList_FiltersByStatus(t *testing.T) {
	d := newTestDecisions(t)
	a, err := d.Create(CreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = d.Create(CreateInput{Title: "b"})
	require.NoError(t, err)

	_, err = d.TransitionStatus(a.ID, store.DecisionParked, nil)
	require.NoError(t, err)

	parked, err := d.List(string(store.DecisionParked), nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Equal(t, a.ID, parked[0].ID)
}
