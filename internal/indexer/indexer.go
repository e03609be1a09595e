// Package indexer drives C4: the one-shot job that (re)builds both
// indices from the markdown corpus.
package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/parser"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/vectorbackend"
)

// VectorCollection is the fixed collection name the indexer and retrieval
// both address.
const VectorCollection = "oracle_documents"

var logger = applog.Named("indexer")

// Indexer owns one indexing pass end to end.
type Indexer struct {
	store   *store.Store
	vectors *vectorbackend.Backend
	cfg     config.Config
}

// New builds an Indexer over the given store and vector backend.
func New(s *store.Store, vectors *vectorbackend.Backend, cfg config.Config) *Indexer {
	return &Indexer{store: s, vectors: vectors, cfg: cfg}
}

// Run performs one full indexing pass. Re-entrancy is the
// caller's responsibility; the HTTP server resets stale state on startup.
func (ix *Indexer) Run(ctx context.Context) error {
	if err := ix.store.BeginIndexing(0); err != nil {
		return err
	}

	docs, err := ix.parseAll()
	if err != nil {
		_ = ix.store.FinishIndexing(0, err)
		return err
	}

	if err := ix.store.SetIndexingProgress(0); err != nil {
		logger.Warn("failed to set initial progress", "err", err)
	}

	if err := ix.clearIndices(ctx); err != nil {
		_ = ix.store.FinishIndexing(0, err)
		return err
	}

	runErr := ix.writeAll(ctx, docs)
	if err := ix.store.FinishIndexing(len(docs), runErr); err != nil {
		logger.Warn("failed to record indexing completion", "err", err)
	}
	return runErr
}

// parseAll walks the three subtrees in order, accumulating Documents in
// memory.
func (ix *Indexer) parseAll() ([]parser.Document, error) {
	now := time.Now()
	var docs []parser.Document

	resonanceDir := filepath.Join(ix.cfg.KnowledgeDir(), "resonance")
	resonanceFiles, err := markdownFiles(resonanceDir)
	if err != nil {
		return nil, err
	}
	for _, f := range resonanceFiles {
		d, err := parser.ParseResonanceFile(f, now)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}

	learningsDir := filepath.Join(ix.cfg.KnowledgeDir(), "learnings")
	learningFiles, err := markdownFiles(learningsDir)
	if err != nil {
		return nil, err
	}
	for _, f := range learningFiles {
		d, err := parser.ParseLearningFile(f, now)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}

	retroDir := filepath.Join(ix.cfg.KnowledgeDir(), "retrospectives")
	retroDocs, err := parser.ParseRetrospectiveTree(retroDir, now)
	if err != nil {
		return nil, err
	}
	docs = append(docs, retroDocs...)

	return docs, nil
}

// clearIndices truncates the keyword/metadata tables and recreates the
// vector collection.
func (ix *Indexer) clearIndices(ctx context.Context) error {
	if err := ix.store.ClearFTS(); err != nil {
		return err
	}
	if err := ix.store.ClearDocuments(); err != nil {
		return err
	}

	if ix.vectors != nil {
		if err := ix.vectors.DeleteCollection(ctx, VectorCollection); err != nil {
			logger.Warn("deleting vector collection failed, continuing", "err", err)
		}
		if err := ix.vectors.EnsureCollection(ctx, VectorCollection); err != nil {
			logger.Warn("vector backend unreachable during rebuild, store side remains authoritative", "err", err)
		}
	}
	return nil
}

// writeAll persists every parsed Document to the metadata row, the
// text-index row, and stages it for a batched vector upsert.
func (ix *Indexer) writeAll(ctx context.Context, docs []parser.Document) error {
	var vectorItems []vectorbackend.Item

	for i, d := range docs {
		storeDoc := &store.Document{
			ID:         d.ID,
			Type:       d.Type,
			SourceFile: d.SourceFile,
			Concepts:   d.Concepts,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
			IndexedAt:  d.IndexedAt,
		}
		if err := ix.store.UpsertDocument(storeDoc); err != nil {
			return err
		}

		if err := ix.store.UpsertFTS(store.FTSRow{
			ID:       d.ID,
			Type:     string(d.Type),
			Title:    d.Title,
			Content:  d.Content,
			Concepts: joinConcepts(d.Concepts),
		}); err != nil {
			return err
		}

		vectorItems = append(vectorItems, vectorbackend.Item{
			ID:   d.ID,
			Text: d.Content,
			Metadata: map[string]any{
				"type":        string(d.Type),
				"source_file": d.SourceFile,
			},
		})

		if err := ix.store.SetIndexingProgress(i + 1); err != nil {
			logger.Warn("failed to update progress", "err", err)
		}
	}

	if ix.vectors != nil && len(vectorItems) > 0 {
		if err := ix.vectors.Upsert(ctx, VectorCollection, vectorItems); err != nil {
			logger.Warn("vector backend unreachable, continuing with store-only index", "err", err)
		}
	}

	return nil
}

func joinConcepts(concepts []string) string {
	out := ""
	for i, c := range concepts {
		if i > 0 {
			out += " "
		}
		out += c
	}
	return out
}

// markdownFiles lists *.md files directly under dir. A missing subtree is
// not an error — a fresh repo may not have populated all three yet.
func markdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".md" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
