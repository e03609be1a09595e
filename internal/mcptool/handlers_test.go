package mcptool

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/consult"
	"github.com/oracle-mind/oracle/internal/dashboard"
	"github.com/oracle-mind/oracle/internal/decisions"
	"github.com/oracle-mind/oracle/internal/forum"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/trace"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := config.Config{DataDir: dir, RepoRoot: dir}
	consultant := consult.New(s, nil)
	learner := learn.New(s, cfg)
	return NewHandler(
		s,
		retrieval.New(s, nil),
		consultant,
		learner,
		trace.New(s, learner),
		forum.New(s, consultant),
		decisions.New(s),
		dashboard.New(s),
	)
}

func TestCallTool_UnknownToolIsError(t *testing.T) {
	h := newTestHandler(t)
	result, err := h.CallTool(context.Background(), "not_a_real_tool", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCallTool_LearnThenListRoundTrips(t *testing.T) {
	h := newTestHandler(t)

	learnArgs, err := json.Marshal(map[string]any{"pattern": "always sanitize user input"})
	require.NoError(t, err)
	result, err := h.CallTool(context.Background(), "oracle_learn", learnArgs)
	require.NoError(t, err)
	require.False(t, result.IsError, result.Content[0].Text)

	listResult, err := h.CallTool(context.Background(), "oracle_list", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.False(t, listResult.IsError)
	assert.Contains(t, listResult.Content[0].Text, "always-sanitize-user-input")
}

func TestCallTool_LearnWithEmptyPatternIsError(t *testing.T) {
	h := newTestHandler(t)
	args, err := json.Marshal(map[string]any{"pattern": ""})
	require.NoError(t, err)

	result, err := h.CallTool(context.Background(), "oracle_learn", args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// seedScopedAndUniversal indexes one document with no project and one
// scoped to project "widgets", both matching the query "sanitize".
func seedScopedAndUniversal(t *testing.T, h *Handler) {
	t.Helper()
	widgets := "widgets"
	for _, d := range []*store.Document{
		{ID: "universal", Type: store.TypeLearning, SourceFile: "universal.md"},
		{ID: "scoped", Type: store.TypeLearning, SourceFile: "scoped.md", Project: &widgets},
	} {
		require.NoError(t, h.store.UpsertDocument(d))
		require.NoError(t, h.store.UpsertFTS(store.FTSRow{ID: d.ID, Type: string(d.Type), Title: d.ID, Content: "sanitize user input"}))
	}
}

func resultIDs(resp *retrieval.SearchResponse) []string {
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestDispatch_SearchProjectNullRestrictsToUnassigned(t *testing.T) {
	h := newTestHandler(t)
	seedScopedAndUniversal(t, h)

	out, err := h.dispatch(context.Background(), "oracle_search", json.RawMessage(`{"query":"sanitize","project":null}`))
	require.NoError(t, err)
	resp, ok := out.(*retrieval.SearchResponse)
	require.True(t, ok)
	assert.Equal(t, []string{"universal"}, resultIDs(resp))
}

func TestDispatch_SearchOmittedProjectDoesNotSetProjectSet(t *testing.T) {
	h := newTestHandler(t)
	seedScopedAndUniversal(t, h)

	// With ProjectSet left false and no cwd, no project filter applies, so
	// the project-scoped document is returned alongside the universal one.
	resp, err := h.oracleSearch(json.RawMessage(`{"query":"sanitize"}`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"universal", "scoped"}, resultIDs(resp))
}

func TestDispatch_ConceptsSortsDescendingThenAlphabetical(t *testing.T) {
	h := newTestHandler(t)
	require.NoError(t, h.store.UpsertDocument(&store.Document{ID: "a", Type: store.TypePrinciple, SourceFile: "a.md", Concepts: []string{"zeta", "trust"}}))
	require.NoError(t, h.store.UpsertDocument(&store.Document{ID: "b", Type: store.TypePrinciple, SourceFile: "b.md", Concepts: []string{"trust"}}))

	out, err := h.dispatch(context.Background(), "oracle_concepts", nil)
	require.NoError(t, err)
	counts, ok := out.([]conceptCount)
	require.True(t, ok)
	require.NotEmpty(t, counts)
	assert.Equal(t, "trust", counts[0].Concept)
	assert.Equal(t, 2, counts[0].Count)
}

func TestDispatch_DecisionsCreateThenTransitionThroughTool(t *testing.T) {
	h := newTestHandler(t)

	createArgs, err := json.Marshal(map[string]any{"title": "adopt hybrid retrieval"})
	require.NoError(t, err)
	created, err := h.dispatch(context.Background(), "oracle_decisions_create", createArgs)
	require.NoError(t, err)
	dec, ok := created.(*store.Decision)
	require.True(t, ok)
	assert.Equal(t, store.DecisionPending, dec.Status)

	updateArgs, err := json.Marshal(map[string]any{"id": dec.ID, "status": "decided"})
	require.NoError(t, err)
	updated, err := h.dispatch(context.Background(), "oracle_decisions_update", updateArgs)
	require.NoError(t, err)
	updatedDec, ok := updated.(*store.Decision)
	require.True(t, ok)
	assert.Equal(t, store.DecisionDecided, updatedDec.Status)
}

func TestDispatch_TraceCreateThenChain(t *testing.T) {
	h := newTestHandler(t)

	createArgs, err := json.Marshal(map[string]any{"traceId": "t1", "query": "why is search slow"})
	require.NoError(t, err)
	_, err = h.dispatch(context.Background(), "oracle_trace", createArgs)
	require.NoError(t, err)

	getArgs, err := json.Marshal(map[string]any{"traceId": "t1", "chain": true})
	require.NoError(t, err)
	out, err := h.dispatch(context.Background(), "oracle_trace_get", getArgs)
	require.NoError(t, err)
	require.NotNil(t, out)
}
