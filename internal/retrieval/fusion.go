package retrieval

import "math"

// Result is one fused row of a search response.
type Result struct {
	ID          string
	Type        string
	Content     string
	SourceFile  string
	Concepts    []string
	Project     *string
	Source      string // "fts", "vector", or "hybrid"
	Score       float64
	FTSScore    *float64
	VectorScore *float64

	insertionOrder int
}

// NormalizeFTS converts a raw bm25 rank (negative, more negative better)
// to a (0, 1] similarity via exponential decay.
func NormalizeFTS(rank float64) float64 {
	return math.Exp(-0.3 * math.Abs(rank))
}

// NormalizeVector converts a cosine distance in [0, 2] to a [0, 1]
// similarity.
func NormalizeVector(distance float64) float64 {
	v := 1 - distance/2
	if v < 0 {
		return 0
	}
	return v
}

func normalizeFTS(rank float64) float64    { return NormalizeFTS(rank) }
func normalizeVector(distance float64) float64 { return NormalizeVector(distance) }

// ftsCandidate and vectorCandidate are the pre-fusion shapes from each
// backend, already carrying a normalized score.
type ftsCandidate struct {
	id         string
	docType    string
	content    string
	sourceFile string
	concepts   []string
	project    *string
	score      float64
	order      int
}

type vectorCandidate struct {
	id         string
	docType    string
	content    string
	sourceFile string
	concepts   []string
	project    *string
	score      float64
	order      int
}

// fuse combines keyword and vector candidates by id. Ties within
// a source keep keyword-first insertion order.
func fuse(fts []ftsCandidate, vector []vectorCandidate, w weights) []Result {
	byID := make(map[string]*Result, len(fts)+len(vector))
	var order []string

	for _, c := range fts {
		fs := c.score
		r := &Result{
			ID:             c.id,
			Type:           c.docType,
			Content:        c.content,
			SourceFile:     c.sourceFile,
			Concepts:       c.concepts,
			Project:        c.project,
			Source:         "fts",
			Score:          w.fts * fs,
			FTSScore:       &fs,
			insertionOrder: c.order,
		}
		byID[c.id] = r
		order = append(order, c.id)
	}

	for _, c := range vector {
		vs := c.score
		if existing, ok := byID[c.id]; ok {
			existing.Source = "hybrid"
			existing.VectorScore = &vs
			combined := (w.fts*(*existing.FTSScore) + w.vector*vs) * 1.10
			if combined > 1.0 {
				combined = 1.0
			}
			existing.Score = combined
			continue
		}
		r := &Result{
			ID:             c.id,
			Type:           c.docType,
			Content:        c.content,
			SourceFile:     c.sourceFile,
			Concepts:       c.concepts,
			Project:        c.project,
			Source:         "vector",
			Score:          w.vector * vs,
			VectorScore:    &vs,
			insertionOrder: len(fts) + c.order,
		}
		byID[c.id] = r
		order = append(order, c.id)
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		results = append(results, *byID[id])
	}

	// Stable sort by score descending, ties broken by insertion order
	// (keyword-first).
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && less(results[j], results[j-1]); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}

func less(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.insertionOrder < b.insertionOrder
}
