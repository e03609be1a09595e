// Package retrieval implements C5: hybrid keyword + vector search, fused
// by an exact, testable scoring formula rather than rank-only methods
// like Reciprocal Rank Fusion.
package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/indexer"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/vectorbackend"
)

var logger = applog.Named("retrieval")

// SearchParams is the public contract's input shape.
type SearchParams struct {
	Query      string
	Type       string // "" or "all" means no filter
	Limit      int
	Offset     int
	Mode       string // "hybrid" (default), "fts", "vector"
	ProjectSet bool   // true if the caller passed project explicitly, even as null
	Project    *string
	CWD        *string
}

// SearchResponse is the public contract's output shape.
type SearchResponse struct {
	Results []Result
	Total   int
	Offset  int
	Limit   int
	Mode    string
	Warning *string
}

// Searcher bundles the store and vector backend used by a search.
type Searcher struct {
	store   *store.Store
	vectors *vectorbackend.Backend
}

// New builds a Searcher.
func New(s *store.Store, vectors *vectorbackend.Backend) *Searcher {
	return &Searcher{store: s, vectors: vectors}
}

// Search runs one hybrid search end to end: project resolution,
// sanitization, parallel backend execution, normalization, fusion,
// pagination, and telemetry.
func (s *Searcher) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	start := time.Now()

	if strings.TrimSpace(p.Query) == "" {
		return nil, apperr.Validation("query must not be empty")
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		return nil, apperr.Validation("limit must be <= 100")
	}
	if p.Offset < 0 {
		return nil, apperr.Validation("offset must be >= 0")
	}
	mode := p.Mode
	if mode == "" {
		mode = "hybrid"
	}

	project, noProjectOnly, err := s.resolveProject(p)
	if err != nil {
		return nil, err
	}

	w := selectWeights(p.Query)
	responseMode := mode + w.suffix
	fetchLimit := 2 * p.Limit

	var (
		ftsHits     []ftsCandidate
		keywordTot  int
		vectorHits  []vectorCandidate
		warning     *string
		ftsErr      error
		vectorErr   error
	)

	var wg sync.WaitGroup
	if mode != "vector" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ftsHits, keywordTot, ftsErr = s.runKeyword(p, project, noProjectOnly, fetchLimit)
		}()
	}
	if mode != "fts" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = s.runVector(ctx, p, project, noProjectOnly, fetchLimit)
		}()
	}
	wg.Wait()

	if mode != "vector" && ftsErr != nil {
		return nil, ftsErr
	}
	if mode != "fts" && vectorErr != nil {
		if mode == "vector" {
			return nil, vectorErr
		}
		msg := fmt.Sprintf("Vector search unavailable: %v. Using FTS5 only.", vectorErr)
		warning = &msg
		vectorHits = nil
	}

	combined := fuse(ftsHits, vectorHits, w)

	total := keywordTot
	if mode == "vector" {
		total = len(vectorHits)
	} else if mode == "hybrid" {
		if len(combined) > total {
			total = len(combined)
		}
	}

	end := p.Offset + p.Limit
	if end > len(combined) {
		end = len(combined)
	}
	var page []Result
	if p.Offset < len(combined) {
		page = combined[p.Offset:end]
	}

	enriched := s.enrich(page)

	elapsed := int(time.Since(start).Milliseconds())
	s.recordTelemetry(p.Query, p.Type, responseMode, total, elapsed, project, enriched)

	return &SearchResponse{
		Results: enriched,
		Total:   total,
		Offset:  p.Offset,
		Limit:   p.Limit,
		Mode:    responseMode,
		Warning: warning,
	}, nil
}

func (s *Searcher) runKeyword(p SearchParams, project *string, noProjectOnly bool, fetchLimit int) ([]ftsCandidate, int, error) {
	sanitized := Sanitize(p.Query)
	params := store.KeywordSearchParams{
		Query:         sanitized,
		Type:          p.Type,
		Project:       project,
		NoProjectOnly: noProjectOnly,
		Limit:         fetchLimit,
	}
	hits, err := s.store.KeywordSearch(params)
	if err != nil {
		return nil, 0, fmt.Errorf("keyword search: %w", err)
	}
	total, err := s.store.KeywordTotal(params)
	if err != nil {
		return nil, 0, fmt.Errorf("keyword total: %w", err)
	}

	candidates := make([]ftsCandidate, len(hits))
	for i, h := range hits {
		candidates[i] = ftsCandidate{
			id:      h.ID,
			docType: h.Type,
			content: h.Content,
			score:   normalizeFTS(h.Rank),
			order:   i,
		}
	}
	return candidates, total, nil
}

func (s *Searcher) runVector(ctx context.Context, p SearchParams, project *string, noProjectOnly bool, fetchLimit int) ([]vectorCandidate, error) {
	if s.vectors == nil {
		return nil, apperr.Degraded("vector backend not configured")
	}

	var where map[string]string
	if p.Type != "" && p.Type != string(store.TypeAll) {
		where = map[string]string{"type": p.Type}
	}

	result, err := s.vectors.Query(ctx, indexer.VectorCollection, p.Query, fetchLimit, where)
	if err != nil {
		return nil, err
	}

	candidates := make([]vectorCandidate, 0, len(result.IDs))
	for i, id := range result.IDs {
		docProject, err := s.store.ProjectOf(id)
		if err != nil {
			continue
		}
		if noProjectOnly && docProject != nil {
			continue
		}
		if !noProjectOnly && project != nil && docProject != nil && *docProject != *project {
			continue
		}

		var docType, sourceFile string
		if i < len(result.Metadatas) && result.Metadatas[i] != nil {
			if t, ok := result.Metadatas[i]["type"].(string); ok {
				docType = t
			}
			if f, ok := result.Metadatas[i]["source_file"].(string); ok {
				sourceFile = f
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

		candidates = append(candidates, vectorCandidate{
			id:         id,
			docType:    docType,
			content:    content,
			sourceFile: sourceFile,
			project:    docProject,
			score:      normalizeVector(distance),
			order:      i,
		})
	}
	return candidates, nil
}

// enrich fills SourceFile/Concepts/Project from the metadata table for the
// final page only, and truncates content to 500 characters.
func (s *Searcher) enrich(page []Result) []Result {
	out := make([]Result, len(page))
	for i, r := range page {
		out[i] = r
		if doc, err := s.store.GetDocument(r.ID); err == nil {
			out[i].SourceFile = doc.SourceFile
			out[i].Concepts = doc.Concepts
			out[i].Project = doc.Project
			out[i].Type = string(doc.Type)
		}
		out[i].Content = truncate(out[i].Content, 500)
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (s *Searcher) recordTelemetry(query, docType, mode string, total, elapsedMs int, project *string, results []Result) {
	if err := s.store.LogSearch(query, docType, mode, total, elapsedMs, project); err != nil {
		logger.Warn("failed to log search", "err", err)
	}
	for _, r := range results {
		if err := s.store.LogDocumentAccess(r.ID, "search", project); err != nil {
			logger.Warn("failed to log document access", "err", err, "id", r.ID)
		}
	}
}

// resolveProject implements the project precedence rule: explicit project (even
// explicit null) wins; otherwise cwd-based auto-detection; otherwise no
// filter.
func (s *Searcher) resolveProject(p SearchParams) (project *string, noProjectOnly bool, err error) {
	if p.ProjectSet {
		if p.Project == nil {
			return nil, true, nil
		}
		return p.Project, false, nil
	}

	if p.CWD == nil {
		return nil, false, nil
	}

	root, found := findProjectRoot(*p.CWD)
	if !found {
		return nil, false, nil
	}

	slug, err := s.store.DetectProjectByGhqPath(root)
	if err != nil {
		return nil, false, err
	}
	return slug, false, nil
}

// findProjectRoot walks up from dir until a.git or ψ directory is found
//.
func findProjectRoot(dir string) (string, bool) {
	for {
		if isDir(filepath.Join(dir, ".git")) || isDir(filepath.Join(dir, "ψ")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
