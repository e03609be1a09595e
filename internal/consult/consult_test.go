package consult

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBucket_NewEntry(t *testing.T) {
	bucket := map[string]Bucketed{}
	order := map[string]int{}
	next := 0

	mergeBucket(bucket, order, &next, "a", "content a", 0.4)

	require.Contains(t, bucket, "a")
	assert.Equal(t, 0.4, bucket["a"].Score)
	assert.Equal(t, 0, order["a"])
	assert.Equal(t, 1, next)
}

func TestMergeBucket_ExistingUsesMaxPlusBoost(t *testing.T) {
	bucket := map[string]Bucketed{"a": {ID: "a", Content: "content a", Score: 0.5}}
	order := map[string]int{"a": 0}
	next := 1

	mergeBucket(bucket, order, &next, "a", "content a", 0.3)
	assert.InDelta(t, 0.6, bucket["a"].Score, 1e-9, "max(0.5,0.3)+0.1")

	mergeBucket(bucket, order, &next, "a", "content a", 0.7)
	assert.InDelta(t, 0.8, bucket["a"].Score, 1e-9, "max(0.6,0.7)+0.1")
}

func TestMergeBucket_ClampsToOne(t *testing.T) {
	bucket := map[string]Bucketed{"a": {ID: "a", Score: 0.95}}
	order := map[string]int{"a": 0}
	next := 1

	mergeBucket(bucket, order, &next, "a", "c", 0.95)
	assert.Equal(t, 1.0, bucket["a"].Score)
}

func TestTopN_OrdersByScoreThenInsertion(t *testing.T) {
	bucket := map[string]Bucketed{
		"a": {ID: "a", Score: 0.5},
		"b": {ID: "b", Score: 0.9},
		"c": {ID: "c", Score: 0.5},
	}
	order := map[string]int{"a": 0, "b": 1, "c": 2}

	top := topN(bucket, order, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "a", top[1].ID, "ties broken by earlier insertion order")
}

func TestRenderGuidance_EmptyBucketsMessage(t *testing.T) {
	out := renderGuidance("should we rewrite in rust", nil, nil)
	assert.Contains(t, out, "No matching principles or patterns")
	assert.Contains(t, out, "should we rewrite in rust")
}

func TestRenderGuidance_IncludesBothSectionsAndAphorism(t *testing.T) {
	principles := []Bucketed{{ID: "p1", Content: "keep humans in the loop", Score: 0.9}}
	patterns := []Bucketed{{ID: "l1", Content: "batch upserts at 100 items", Score: 0.8}}

	out := renderGuidance("automate everything", principles, patterns)

	assert.Contains(t, out, `Consulting the Oracle on: "automate everything"`)
	assert.Contains(t, out, "Relevant principles:")
	assert.Contains(t, out, "1. keep humans in the loop")
	assert.Contains(t, out, "Relevant patterns:")
	assert.Contains(t, out, "1. batch upserts at 100 items")
	assert.Contains(t, out, closingAphorism)
}
