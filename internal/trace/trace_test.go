package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/store"
)

func newTestTracer(t *testing.T) *Tracer {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	learner := learn.New(s, config.Config{DataDir: dir, RepoRoot: dir})
	return New(s, learner)
}

func TestCreate_RootHasNoParent(t *testing.T) {
	tr := newTestTracer(t)

	created, err := tr.Create("t1", "why does search feel slow", "perf", store.DigPoints{}, nil, nil)
	require.NoError(t, err)
	require.Nil(t, created.ParentTraceID)
	require.Equal(t, 0, created.Depth)
}

func TestChain_Up_WalksToRoot(t *testing.T) {
	tr := newTestTracer(t)

	root, err := tr.Create("root", "root query", "q", store.DigPoints{}, nil, nil)
	require.NoError(t, err)
	mid, err := tr.Create("mid", "mid query", "q", store.DigPoints{}, &root.TraceID, nil)
	require.NoError(t, err)
	_, err = tr.Create("leaf", "leaf query", "q", store.DigPoints{}, &mid.TraceID, nil)
	require.NoError(t, err)

	result, err := tr.Chain("leaf", DirUp)
	require.NoError(t, err)

	require.Len(t, result.Traces, 3)
	require.Equal(t, "root", result.Traces[0].TraceID)
	require.Equal(t, "mid", result.Traces[1].TraceID)
	require.Equal(t, "leaf", result.Traces[2].TraceID)
}

func TestChain_Down_WalksDescendants(t *testing.T) {
	tr := newTestTracer(t)

	root, err := tr.Create("root2", "root query", "q", store.DigPoints{}, nil, nil)
	require.NoError(t, err)
	_, err = tr.Create("childA", "a", "q", store.DigPoints{}, &root.TraceID, nil)
	require.NoError(t, err)
	_, err = tr.Create("childB", "b", "q", store.DigPoints{}, &root.TraceID, nil)
	require.NoError(t, err)

	result, err := tr.Chain("root2", DirDown)
	require.NoError(t, err)
	require.Len(t, result.Traces, 3)
	require.Equal(t, "root2", result.Traces[0].TraceID)
}

func TestDistill_PromotesAwakeningToLearning(t *testing.T) {
	tr := newTestTracer(t)

	_, err := tr.Create("t-distill", "why do we batch vector upserts", "design", store.DigPoints{}, nil, nil)
	require.NoError(t, err)

	distilled, err := tr.Distill("t-distill", "Batch writes at a fixed size to bound backend pressure", true, nil)
	require.NoError(t, err)
	require.Equal(t, store.TraceDistilled, distilled.Status)
	require.NotNil(t, distilled.DistilledToID)
}
