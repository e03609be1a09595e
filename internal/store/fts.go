package store

import (
	"fmt"
)

// FTSRow is the keyword-index row for a Document.
type FTSRow struct {
	ID       string
	Type     string
	Title    string
	Content  string
	Concepts string // space-joined
}

// UpsertFTS writes a keyword-index row, replacing any existing row for the
// same id. FTS5 has no native upsert-by-arbitrary-column, so this deletes
// then inserts within the same statement batch.
func (s *Store) UpsertFTS(row FTSRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM oracle_fts WHERE id = ?`, row.ID); err != nil {
		return fmt.Errorf("clearing fts row %s: %w", row.ID, err)
	}

	if _, err := tx.Exec(
		`INSERT INTO oracle_fts (id, type, title, content, concepts) VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.Type, row.Title, row.Content, row.Concepts,
	); err != nil {
		return fmt.Errorf("inserting fts row %s: %w", row.ID, err)
	}

	return tx.Commit()
}

// ClearFTS truncates the keyword index, mirrored with ClearDocuments during
// re-index.
func (s *Store) ClearFTS() error {
	_, err := s.db.Exec(`DELETE FROM oracle_fts`)
	return err
}

// FTSIDs returns the full set of ids present in the keyword index, used by
// the re-index parity check.
func (s *Store) FTSIDs() ([]string, error) {
	var ids []string
	if err := s.db.Select(&ids, `SELECT id FROM oracle_fts`); err != nil {
		return nil, err
	}
	return ids, nil
}

// KeywordHit is one row returned by a keyword search, before normalization.
type KeywordHit struct {
	ID      string
	Type    string
	Content string
	Rank    float64 // raw bm25 rank: negative, more negative is better
}

// KeywordSearchParams bounds a keyword query by type and project.
type KeywordSearchParams struct {
	Query   string // already sanitized
	Type    string // "" or "all" means no type filter
	Project *string
	NoProjectOnly bool // "no project" filter semantics
	Limit   int
}

// KeywordSearch runs the prepared keyword query joining the FTS table to
// the metadata table for type/project filtering.
func (s *Store) KeywordSearch(p KeywordSearchParams) ([]KeywordHit, error) {
	query, args := buildKeywordQuery(p, false)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []KeywordHit
	for rows.Next() {
		var h KeywordHit
		if err := rows.Scan(&h.ID, &h.Type, &h.Content, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// KeywordTotal runs the same filtered query without a limit, for the
// total-count side of the search contract.
func (s *Store) KeywordTotal(p KeywordSearchParams) (int, error) {
	query, args := buildKeywordQuery(p, true)
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func buildKeywordQuery(p KeywordSearchParams, countOnly bool) (string, []any) {
	base := `
		SELECT f.id, d.type, f.content, bm25(oracle_fts) as rank
		FROM oracle_fts f
		JOIN oracle_documents d ON d.id = f.id
		WHERE oracle_fts MATCH ?
	`
	args := []any{p.Query}

	if p.Type != "" && p.Type != string(TypeAll) {
		base += " AND d.type = ?"
		args = append(args, p.Type)
	}

	if p.NoProjectOnly {
		base += " AND d.project IS NULL"
	} else if p.Project != nil {
		base += " AND (d.project = ? OR d.project IS NULL)"
		args = append(args, *p.Project)
	}

	if countOnly {
		return fmt.Sprintf("SELECT COUNT(*) FROM (%s)", base), args
	}

	base += " ORDER BY rank LIMIT ?"
	args = append(args, p.Limit)
	return base, args
}
