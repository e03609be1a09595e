package retrieval

import (
	"regexp"
	"strings"
)

// weights is a (ftsWeight, vectorWeight) pair used by fusion.
type weights struct {
	fts    float64
	vector float64
	suffix string // appended to the base mode string, e.g. "-short"
}

var defaultWeights = weights{fts: 0.5, vector: 0.5}

var booleanWord = regexp.MustCompile(`\bAND\b|\bOR\b|\bNOT\b`)

// selectWeights implements the query-aware weighting rule.
// Order matters: a query excluded from the "short" bucket by quotes still
// falls into the "quoted" bucket before the "long" bucket is considered.
func selectWeights(query string) weights {
	tokens := strings.Fields(query)
	hasQuote := strings.Contains(query, `"`)

	switch {
	case len(tokens) <= 2 && !hasQuote:
		return weights{fts: 0.7, vector: 0.3, suffix: "-short"}
	case hasQuote || booleanWord.MatchString(query):
		return weights{fts: 0.75, vector: 0.25, suffix: "-quoted"}
	case len(tokens) > 5:
		return weights{fts: 0.3, vector: 0.7, suffix: "-long"}
	default:
		return defaultWeights
	}
}
