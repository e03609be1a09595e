package store

import (
	"math/rand"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// ListDocuments returns documents ordered by indexed_at descending,
// optionally filtered by type, for oracle_list(groupByFile=false).
func (s *Store) ListDocuments(docType string, limit, offset int) ([]*Document, error) {
	query := `SELECT * FROM oracle_documents WHERE 1=1`
	var args []any
	if docType != "" && docType != string(TypeAll) {
		query += " AND type = ?"
		args = append(args, docType)
	}
	query += " ORDER BY indexed_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []documentRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return rowsToDocuments(rows)
}

// ListDocumentsGrouped collapses multiple chunks of the same source_file
// down to the most recently indexed one, matching "oracle_list
// groupByFile=true... UI browsing would otherwise be flooded by bullet
// sub-documents." Chunks of one file that share the latest indexed_at
// (the parser stamps every chunk of a file with one time) resolve to the
// chunk with the smallest id.
func (s *Store) ListDocumentsGrouped(docType string, limit, offset int) ([]*Document, error) {
	query := `
		SELECT d.* FROM oracle_documents d
		INNER JOIN (
			SELECT source_file, MAX(indexed_at) AS max_indexed
			FROM oracle_documents GROUP BY source_file
		) latest ON d.source_file = latest.source_file AND d.indexed_at = latest.max_indexed
		WHERE d.id = (
			SELECT MIN(d2.id) FROM oracle_documents d2
			WHERE d2.source_file = d.source_file AND d2.indexed_at = d.indexed_at
		)
	`
	var args []any
	if docType != "" && docType != string(TypeAll) {
		query += " AND d.type = ?"
		args = append(args, docType)
	}
	query += " ORDER BY d.indexed_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []documentRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return rowsToDocuments(rows)
}

func rowsToDocuments(rows []documentRow) ([]*Document, error) {
	docs := make([]*Document, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ReflectRow is a document joined with its indexed content, used only by
// oracle_reflect.
type ReflectRow struct {
	ID         string
	Type       string
	Title      string
	Content    string
	SourceFile string
	Concepts   []string
}

// RandomReflection picks one principle-or-learning document at random
// with its full content, for oracle_reflect.
func (s *Store) RandomReflection() (*ReflectRow, error) {
	var ids []string
	if err := s.db.Select(&ids, `
		SELECT id FROM oracle_documents WHERE type IN (?, ?)
	`, string(TypePrinciple), string(TypeLearning)); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperr.NotFound("no principle or learning documents to reflect on")
	}
	id := ids[rand.Intn(len(ids))]

	doc, err := s.GetDocument(id)
	if err != nil {
		return nil, err
	}

	var row struct {
		Title   string `db:"title"`
		Content string `db:"content"`
	}
	if err := s.db.Get(&row, `SELECT title, content FROM oracle_fts WHERE id = ?`, id); err != nil {
		return nil, err
	}

	return &ReflectRow{
		ID:         doc.ID,
		Type:       string(doc.Type),
		Title:      row.Title,
		Content:    row.Content,
		SourceFile: doc.SourceFile,
		Concepts:   doc.Concepts,
	}, nil
}
