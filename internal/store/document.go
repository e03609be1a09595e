package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// DocType enumerates the four document types.
type DocType string

const (
	TypePrinciple DocType = "principle"
	TypeLearning  DocType = "learning"
	TypePattern   DocType = "pattern"
	TypeRetro     DocType = "retro"
	TypeAll       DocType = "all"
)

// Origin enumerates provenance origins.
type Origin string

const (
	OriginMother Origin = "mother"
	OriginArthur Origin = "arthur"
	OriginVolt   Origin = "volt"
	OriginHuman  Origin = "human"
)

// Document is the indexed unit. Content is never stored on this
// row — only in the keyword index and the vector backend — so this
// type is metadata-only; callers that need content pass it separately at
// write time and read it back via the FTS row.
type Document struct {
	ID                string
	Type              DocType
	SourceFile        string
	Concepts          []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	IndexedAt         time.Time
	SupersededBy      *string
	SupersededAt      *time.Time
	SupersededReason  *string
	Origin            *Origin
	Project           *string
	CreatedBy         *string
}

// documentRow mirrors the oracle_documents table shape for sqlx scans.
type documentRow struct {
	ID               string         `db:"id"`
	Type             string         `db:"type"`
	SourceFile       string         `db:"source_file"`
	Concepts         string         `db:"concepts"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	IndexedAt        time.Time      `db:"indexed_at"`
	SupersededBy     sql.NullString `db:"superseded_by"`
	SupersededAt     sql.NullTime   `db:"superseded_at"`
	SupersededReason sql.NullString `db:"superseded_reason"`
	Origin           sql.NullString `db:"origin"`
	Project          sql.NullString `db:"project"`
	CreatedBy        sql.NullString `db:"created_by"`
}

func (r documentRow) toDocument() (*Document, error) {
	var concepts []string
	if r.Concepts != "" {
		if err := json.Unmarshal([]byte(r.Concepts), &concepts); err != nil {
			return nil, fmt.Errorf("decoding concepts: %w", err)
		}
	}

	d := &Document{
		ID:         r.ID,
		Type:       DocType(r.Type),
		SourceFile: r.SourceFile,
		Concepts:   concepts,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		IndexedAt:  r.IndexedAt,
	}
	if r.SupersededBy.Valid {
		d.SupersededBy = &r.SupersededBy.String
	}
	if r.SupersededAt.Valid {
		d.SupersededAt = &r.SupersededAt.Time
	}
	if r.SupersededReason.Valid {
		d.SupersededReason = &r.SupersededReason.String
	}
	if r.Origin.Valid {
		o := Origin(r.Origin.String)
		d.Origin = &o
	}
	if r.Project.Valid {
		d.Project = &r.Project.String
	}
	if r.CreatedBy.Valid {
		d.CreatedBy = &r.CreatedBy.String
	}
	return d, nil
}

// UpsertDocument writes the metadata row for a Document, following the
// step 4's "INSERT OR REPLACE" contract.
func (s *Store) UpsertDocument(d *Document) error {
	conceptsJSON, err := json.Marshal(d.Concepts)
	if err != nil {
		return fmt.Errorf("encoding concepts: %w", err)
	}

	var origin, project, createdBy any
	if d.Origin != nil {
		origin = string(*d.Origin)
	}
	if d.Project != nil {
		project = *d.Project
	}
	if d.CreatedBy != nil {
		createdBy = *d.CreatedBy
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO oracle_documents
			(id, type, source_file, concepts, created_at, updated_at, indexed_at, origin, project, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, string(d.Type), d.SourceFile, string(conceptsJSON), d.CreatedAt, d.UpdatedAt, d.IndexedAt, origin, project, createdBy)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", d.ID, err)
	}
	return nil
}

// GetDocument fetches a single document's metadata by id.
func (s *Store) GetDocument(id string) (*Document, error) {
	var row documentRow
	err := s.db.Get(&row, `SELECT * FROM oracle_documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toDocument()
}

// Supersede marks an older document as superseded by a newer one. The old
// row is never deleted; only these three columns are set.
func (s *Store) Supersede(oldID, newID, reason string) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE oracle_documents
		SET superseded_by = ?, superseded_at = ?, superseded_reason = ?
		WHERE id = ?
	`, newID, now, reason, oldID)
	if err != nil {
		return fmt.Errorf("superseding %s: %w", oldID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("document %s not found", oldID)
	}
	return nil
}

// ClearDocuments truncates the metadata table. Used only by the indexer's
// clear-then-rebuild — the sole sanctioned exception to the
// append-only invariant.
func (s *Store) ClearDocuments() error {
	_, err := s.db.Exec(`DELETE FROM oracle_documents`)
	return err
}

// DocumentIDs returns the full set of document ids, used by the re-index
// parity check.
func (s *Store) DocumentIDs() ([]string, error) {
	var ids []string
	if err := s.db.Select(&ids, `SELECT id FROM oracle_documents`); err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByType returns the number of documents per type, for the dashboard
// summary.
func (s *Store) CountByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM oracle_documents GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var c int
		if err := rows.Scan(&t, &c); err != nil {
			return nil, err
		}
		counts[t] = c
	}
	return counts, rows.Err()
}

// TotalDocuments returns the total document count.
func (s *Store) TotalDocuments() (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM oracle_documents`)
	return n, err
}

// ProjectOf returns the project tag of a document, or nil if universal.
// Used by retrieval to join vector results back against the metadata
// table.
func (s *Store) ProjectOf(id string) (*string, error) {
	var project sql.NullString
	err := s.db.Get(&project, `SELECT project FROM oracle_documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !project.Valid {
		return nil, nil
	}
	return &project.String, nil
}
