// Package consult implements C6: synthesizing a guidance string from the
// principle and pattern corpus for a given decision.
package consult

import (
	"context"
	"fmt"
	"strings"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/indexer"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/vectorbackend"
)

var logger = applog.Named("consult")

const closingAphorism = "Remember: The Oracle Keeps the Human Human."

// Bucketed is one bucketed+scored hit in a consult response.
type Bucketed struct {
	ID      string
	Content string
	Score   float64
}

// Response is the consult output shape.
type Response struct {
	Decision   string
	Principles []Bucketed
	Patterns   []Bucketed
	Guidance   string
}

// Consultant bundles the dependencies a consult call needs.
type Consultant struct {
	store   *store.Store
	vectors *vectorbackend.Backend
}

// New builds a Consultant.
func New(s *store.Store, vectors *vectorbackend.Backend) *Consultant {
	return &Consultant{store: s, vectors: vectors}
}

// Consult runs the two-keyword-query-plus-one-vector-query algorithm and
// synthesizes the guidance template.
func (c *Consultant) Consult(ctx context.Context, decision, context_ string, project *string) (*Response, error) {
	combinedQuery := strings.TrimSpace(decision + " " + context_)
	sanitized := retrieval.Sanitize(combinedQuery)

	principleHits, err := c.store.KeywordSearch(store.KeywordSearchParams{
		Query: sanitized, Type: string(store.TypePrinciple), Project: project, Limit: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("consult principle search: %w", err)
	}
	patternHits, err := c.store.KeywordSearch(store.KeywordSearchParams{
		Query: sanitized, Type: string(store.TypeLearning), Project: project, Limit: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("consult pattern search: %w", err)
	}

	principleBucket := make(map[string]Bucketed, len(principleHits))
	patternBucket := make(map[string]Bucketed, len(patternHits))
	order := make(map[string]int)
	next := 0
	for _, h := range principleHits {
		principleBucket[h.ID] = Bucketed{ID: h.ID, Content: h.Content, Score: retrieval.NormalizeFTS(h.Rank)}
		order[h.ID] = next
		next++
	}
	for _, h := range patternHits {
		patternBucket[h.ID] = Bucketed{ID: h.ID, Content: h.Content, Score: retrieval.NormalizeFTS(h.Rank)}
		order[h.ID] = next
		next++
	}

	if c.vectors != nil {
		result, err := c.vectors.Query(ctx, indexer.VectorCollection, combinedQuery, 15, nil)
		if err != nil {
			logger.Warn("vector consult query failed, continuing with keyword buckets only", "err", err)
		} else {
			for i, id := range result.IDs {
				var docType string
				if i < len(result.Metadatas) && result.Metadatas[i] != nil {
					if t, ok := result.Metadatas[i]["type"].(string); ok {
						docType = t
					}
				}
				var content string
				if i < len(result.Documents) {
					content = result.Documents[i]
				}
				var distance float64
				if i < len(result.Distances) {
					distance = result.Distances[i]
				}
				score := retrieval.NormalizeVector(distance)

				switch docType {
				case string(store.TypePrinciple):
					mergeBucket(principleBucket, order, &next, id, content, score)
				case string(store.TypeLearning), string(store.TypePattern):
					mergeBucket(patternBucket, order, &next, id, content, score)
				}
			}
		}
	}

	principles := topN(principleBucket, order, 3)
	patterns := topN(patternBucket, order, 3)
	guidance := renderGuidance(decision, principles, patterns)

	if err := c.store.LogConsult(decision, context_, len(principles), len(patterns), guidance, project); err != nil {
		logger.Warn("failed to log consult", "err", err)
	}

	return &Response{Decision: decision, Principles: principles, Patterns: patterns, Guidance: guidance}, nil
}

// mergeBucket applies consult's "both = max + 0.1 boost" rule,
// distinct from the weighted-sum formula search uses.
func mergeBucket(bucket map[string]Bucketed, order map[string]int, next *int, id, content string, score float64) {
	if existing, ok := bucket[id]; ok {
		combined := max(existing.Score, score) + 0.1
		if combined > 1.0 {
			combined = 1.0
		}
		existing.Score = combined
		bucket[id] = existing
		return
	}
	bucket[id] = Bucketed{ID: id, Content: content, Score: score}
	order[id] = *next
	*next++
}

func topN(bucket map[string]Bucketed, order map[string]int, n int) []Bucketed {
	items := make([]Bucketed, 0, len(bucket))
	for _, v := range bucket {
		items = append(items, v)
	}
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && rankLess(items[j], items[j-1], order); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func rankLess(a, b Bucketed, order map[string]int) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return order[a.ID] < order[b.ID]
}

