package retrieval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFTS_MonotonicInRankMagnitude(t *testing.T) {
	small := NormalizeFTS(-0.5)
	large := NormalizeFTS(-5.0)
	assert.Greater(t, small, large, "a smaller |rank| should normalize to a higher similarity")
	assert.True(t, small > 0 && small <= 1)
}

func TestNormalizeVector_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeVector(0))
	assert.Equal(t, 0.0, NormalizeVector(2))
	assert.Equal(t, 0.0, NormalizeVector(3), "distances beyond the [0,2] range clamp to 0")
	assert.InDelta(t, 0.5, NormalizeVector(1), 1e-9)
}

func TestFuse_KeywordOnly(t *testing.T) {
	fts := []ftsCandidate{{id: "a", content: "doc a", score: 0.8, order: 0}}
	results := fuse(fts, nil, defaultWeights)
	require.Len(t, results, 1)
	assert.Equal(t, "fts", results[0].Source)
	assert.InDelta(t, 0.4, results[0].Score, 1e-9)
}

func TestFuse_HybridBoost(t *testing.T) {
	fts := []ftsCandidate{{id: "shared", content: "x", score: 0.6, order: 0}}
	vec := []vectorCandidate{{id: "shared", content: "x", score: 0.8, order: 0}}
	w := weights{fts: 0.5, vector: 0.5}

	results := fuse(fts, vec, w)
	require.Len(t, results, 1)
	assert.Equal(t, "hybrid", results[0].Source)

	expected := (0.5*0.6 + 0.5*0.8) * 1.10
	assert.InDelta(t, expected, results[0].Score, 1e-9)
}

func TestFuse_HybridBoostClampsToOne(t *testing.T) {
	fts := []ftsCandidate{{id: "shared", score: 0.95, order: 0}}
	vec := []vectorCandidate{{id: "shared", score: 0.95, order: 0}}
	results := fuse(fts, vec, defaultWeights)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestFuse_TiesBreakKeywordFirst(t *testing.T) {
	fts := []ftsCandidate{{id: "a", score: 0.5, order: 0}}
	vec := []vectorCandidate{{id: "b", score: 0.5, order: 0}}
	// Equal weighted score for both; fts candidate was inserted first.
	w := weights{fts: 1.0, vector: 1.0}
	results := fuse(fts, vec, w)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestFuse_SortedDescendingByScore(t *testing.T) {
	fts := []ftsCandidate{
		{id: "low", score: 0.2, order: 0},
		{id: "high", score: 0.9, order: 1},
		{id: "mid", score: 0.5, order: 2},
	}
	results := fuse(fts, nil, weights{fts: 1, vector: 1})
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i-1].Score >= results[i].Score)
	}
}

func TestSelectWeights_ShortQuery(t *testing.T) {
	w := selectWeights("two words")
	assert.Equal(t, "-short", w.suffix)
	assert.Greater(t, w.fts, w.vector)
}

func TestSelectWeights_QuotedQuery(t *testing.T) {
	w := selectWeights(`"exact phrase" plus more terms here`)
	assert.Equal(t, "-quoted", w.suffix)
}

func TestSelectWeights_BooleanQuery(t *testing.T) {
	w := selectWeights("cats AND dogs but not much else here")
	assert.Equal(t, "-quoted", w.suffix)
}

func TestSelectWeights_LongQuery(t *testing.T) {
	w := selectWeights("this query has quite a few distinct terms in it")
	assert.Equal(t, "-long", w.suffix)
	assert.Greater(t, w.vector, w.fts)
}

func TestSelectWeights_DefaultBucket(t *testing.T) {
	w := selectWeights("three four five")
	assert.Equal(t, "", w.suffix)
	assert.Equal(t, defaultWeights, w)
}

func TestNormalizeFTS_NeverNegative(t *testing.T) {
	for _, rank := range []float64{0, -1, -10, -100} {
		v := NormalizeFTS(rank)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
