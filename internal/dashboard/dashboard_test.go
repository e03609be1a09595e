package dashboard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/store"
)

func newTestDashboard(t *testing.T) (*Dashboard, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func seedDocument(t *testing.T, s *store.Store, id string, typ store.DocType, concepts []string) {
	t.Helper()
	now := time.Now()
	err := s.UpsertDocument(&store.Document{
		ID:         id,
		Type:       typ,
		SourceFile: id + ".md",
		Concepts:   concepts,
		CreatedAt:  now,
		UpdatedAt:  now,
		IndexedAt:  now,
	})
	require.NoError(t, err)
}

func TestSummary_AggregatesCountsAndTopConcepts(t *testing.T) {
	d, s := newTestDashboard(t)

	seedDocument(t, s, "p1", store.TypePrinciple, []string{"trust", "boundaries"})
	seedDocument(t, s, "p2", store.TypePrinciple, []string{"trust"})
	seedDocument(t, s, "l1", store.TypeLearning, []string{"batching"})

	require.NoError(t, s.LogSearch("hybrid retrieval", "all", "hybrid", 3, 12, nil))
	require.NoError(t, s.LogConsult("split the service", "", 1, 1, "guidance", nil))
	require.NoError(t, s.LogLearn("l1", "batch writes", "manual", "batching", nil))

	summary, err := d.Summary()
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalDocuments)
	assert.Equal(t, 2, summary.CountsByType[string(store.TypePrinciple)])
	assert.Equal(t, 1, summary.CountsByType[string(store.TypeLearning)])
	assert.Equal(t, 4, summary.TotalConcepts)
	require.NotEmpty(t, summary.TopConcepts)
	assert.Equal(t, "trust", summary.TopConcepts[0].Concept, "trust appears twice, should sort first")
	assert.Equal(t, 1, summary.Consultations7d)
	assert.Equal(t, 1, summary.Searches7d)
	assert.Equal(t, 1, summary.Learnings7d)
}

func TestTopConcepts_SortsByCountDescThenNameAsc(t *testing.T) {
	counts := map[string]int{"zeta": 2, "alpha": 2, "beta": 5}
	top := topConcepts(counts, 10)

	require.Len(t, top, 3)
	assert.Equal(t, "beta", top[0].Concept)
	assert.Equal(t, "alpha", top[1].Concept, "ties broken alphabetically")
	assert.Equal(t, "zeta", top[2].Concept)
}

func TestTopConcepts_RespectsLimit(t *testing.T) {
	counts := map[string]int{"a": 1, "b": 2, "c": 3}
	top := topConcepts(counts, 2)
	assert.Len(t, top, 2)
}

func TestActivity_MergesAndOrdersByRecency(t *testing.T) {
	d, s := newTestDashboard(t)

	require.NoError(t, s.LogSearch("first query", "all", "keyword", 1, 5, nil))
	require.NoError(t, s.LogConsult("a decision", "", 0, 0, "guidance", nil))
	require.NoError(t, s.LogLearn("doc1", "a pattern", "manual", "", nil))

	rows, err := d.Activity(7)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].CreatedAt.After(rows[i-1].CreatedAt), "rows must be newest first")
	}
}

func TestActivity_TruncatesLongContent(t *testing.T) {
	d, s := newTestDashboard(t)

	long := make([]byte, 250)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, s.LogSearch(string(long), "all", "keyword", 1, 5, nil))

	rows, err := d.Activity(7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.LessOrEqual(t, len([]rune(rows[0].Content)), 100)
}

func TestGrowth_DefaultsToSevenDaysForUnknownPeriod(t *testing.T) {
	d, s := newTestDashboard(t)
	seedDocument(t, s, "d1", store.TypePrinciple, nil)

	points, err := d.Growth("not-a-real-period")
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, 1, points[0].NewDocuments)
}

func TestGrowth_BucketsDistinctCountersOnTheSameDay(t *testing.T) {
	d, s := newTestDashboard(t)
	seedDocument(t, s, "d1", store.TypePrinciple, nil)
	require.NoError(t, s.LogSearch("q", "all", "keyword", 1, 1, nil))
	require.NoError(t, s.LogConsult("c", "", 0, 0, "g", nil))

	points, err := d.Growth("week")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].NewDocuments)
	assert.Equal(t, 1, points[0].Searches)
	assert.Equal(t, 1, points[0].Consultations)
}

func TestSessionStatsSince_CountsOnlyActivityAfterCutoff(t *testing.T) {
	d, s := newTestDashboard(t)
	require.NoError(t, s.LogSearch("q", "all", "keyword", 1, 1, nil))
	require.NoError(t, s.LogConsult("c", "", 0, 0, "g", nil))
	require.NoError(t, s.LogLearn("doc1", "p", "manual", "", nil))

	future := time.Now().Add(time.Hour)
	stats, err := d.SessionStatsSince(future)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Searches)
	assert.Equal(t, 0, stats.Consultations)
	assert.Equal(t, 0, stats.Learnings)

	past := time.Now().Add(-time.Hour)
	stats, err = d.SessionStatsSince(past)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Searches)
	assert.Equal(t, 1, stats.Consultations)
	assert.Equal(t, 1, stats.Learnings)
}
