package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// DigPoints are the evidence arrays a discovery session accumulates.
type DigPoints struct {
	Files      []string `json:"files"`
	Commits    []string `json:"commits"`
	Issues     []string `json:"issues"`
	Retros     []string `json:"retros"`
	Learnings  []string `json:"learnings"`
	Resonance  []string `json:"resonance"`
}

// TraceStatus enumerates the trace lifecycle.
type TraceStatus string

const (
	TraceRaw        TraceStatus = "raw"
	TraceReviewed   TraceStatus = "reviewed"
	TraceDistilling TraceStatus = "distilling"
	TraceDistilled  TraceStatus = "distilled"
)

// Trace is one node in the discovery-session forest.
type Trace struct {
	TraceID        string
	Query          string
	QueryType      string
	DigPoints      DigPoints
	FileCount      int
	CommitCount    int
	IssueCount     int
	RetroCount     int
	LearningCount  int
	ResonanceCount int
	Depth          int
	ParentTraceID  *string
	ChildTraceIDs  []string
	Status         TraceStatus
	Awakening      *string
	DistilledToID  *string
	DistilledAt    *time.Time
	Project        *string
	CreatedAt      time.Time
}

func countDigPoints(d DigPoints) (files, commits, issues, retros, learnings, resonance int) {
	return len(d.Files), len(d.Commits), len(d.Issues), len(d.Retros), len(d.Learnings), len(d.Resonance)
}

// CreateTrace inserts a new trace, computing depth from the parent
// and appending the new id onto the parent's
// child_trace_ids transactionally.
func (s *Store) CreateTrace(traceID, query, queryType string, digPoints DigPoints, parentTraceID *string, project *string) (*Trace, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	depth := 0
	if parentTraceID != nil {
		var parentDepth int
		err := tx.QueryRow(`SELECT depth FROM trace_log WHERE trace_id = ?`, *parentTraceID).Scan(&parentDepth)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("parent trace %s not found", *parentTraceID)
		}
		if err != nil {
			return nil, err
		}
		depth = parentDepth + 1
	}

	files, commits, issues, retros, learnings, resonance := countDigPoints(digPoints)
	digJSON, err := json.Marshal(digPoints)
	if err != nil {
		return nil, fmt.Errorf("encoding dig points: %w", err)
	}

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO trace_log
			(trace_id, query, query_type, dig_points, file_count, commit_count, issue_count,
			 retro_count, learning_count, resonance_count, depth, parent_trace_id, child_trace_ids,
			 status, project, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?, ?)
	`, traceID, query, queryType, string(digJSON), files, commits, issues, retros, learnings, resonance,
		depth, parentTraceID, string(TraceRaw), project, now)
	if err != nil {
		return nil, fmt.Errorf("inserting trace: %w", err)
	}

	if parentTraceID != nil {
		if err := appendChildTraceID(tx, *parentTraceID, traceID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetTrace(traceID)
}

func appendChildTraceID(tx interface {
	QueryRow(query string, args...any) *sql.Row
	Exec(query string, args...any) (sql.Result, error)
}, parentID, childID string) error {
	var childrenJSON string
	if err := tx.QueryRow(`SELECT child_trace_ids FROM trace_log WHERE trace_id = ?`, parentID).Scan(&childrenJSON); err != nil {
		return err
	}
	var children []string
	if childrenJSON != "" {
		if err := json.Unmarshal([]byte(childrenJSON), &children); err != nil {
			return fmt.Errorf("decoding child_trace_ids: %w", err)
		}
	}
	children = append(children, childID)
	updated, err := json.Marshal(children)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`UPDATE trace_log SET child_trace_ids = ? WHERE trace_id = ?`, string(updated), parentID)
	return err
}

type traceRow struct {
	TraceID        string         `db:"trace_id"`
	Query          string         `db:"query"`
	QueryType      sql.NullString `db:"query_type"`
	DigPoints      string         `db:"dig_points"`
	FileCount      int            `db:"file_count"`
	CommitCount    int            `db:"commit_count"`
	IssueCount     int            `db:"issue_count"`
	RetroCount     int            `db:"retro_count"`
	LearningCount  int            `db:"learning_count"`
	ResonanceCount int            `db:"resonance_count"`
	Depth          int            `db:"depth"`
	ParentTraceID  sql.NullString `db:"parent_trace_id"`
	ChildTraceIDs  string         `db:"child_trace_ids"`
	Status         string         `db:"status"`
	Awakening      sql.NullString `db:"awakening"`
	DistilledToID  sql.NullString `db:"distilled_to_id"`
	DistilledAt    sql.NullTime   `db:"distilled_at"`
	Project        sql.NullString `db:"project"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r traceRow) toTrace() (*Trace, error) {
	var dig DigPoints
	if r.DigPoints != "" {
		if err := json.Unmarshal([]byte(r.DigPoints), &dig); err != nil {
			return nil, fmt.Errorf("decoding dig_points: %w", err)
		}
	}
	var children []string
	if r.ChildTraceIDs != "" {
		if err := json.Unmarshal([]byte(r.ChildTraceIDs), &children); err != nil {
			return nil, fmt.Errorf("decoding child_trace_ids: %w", err)
		}
	}

	t := &Trace{
		TraceID:        r.TraceID,
		Query:          r.Query,
		DigPoints:      dig,
		FileCount:      r.FileCount,
		CommitCount:    r.CommitCount,
		IssueCount:     r.IssueCount,
		RetroCount:     r.RetroCount,
		LearningCount:  r.LearningCount,
		ResonanceCount: r.ResonanceCount,
		Depth:          r.Depth,
		ChildTraceIDs:  children,
		Status:         TraceStatus(r.Status),
		CreatedAt:      r.CreatedAt,
	}
	if r.QueryType.Valid {
		t.QueryType = r.QueryType.String
	}
	if r.ParentTraceID.Valid {
		t.ParentTraceID = &r.ParentTraceID.String
	}
	if r.Awakening.Valid {
		t.Awakening = &r.Awakening.String
	}
	if r.DistilledToID.Valid {
		t.DistilledToID = &r.DistilledToID.String
	}
	if r.DistilledAt.Valid {
		t.DistilledAt = &r.DistilledAt.Time
	}
	if r.Project.Valid {
		t.Project = &r.Project.String
	}
	return t, nil
}

// GetTrace fetches one trace row with its JSON arrays parsed.
func (s *Store) GetTrace(traceID string) (*Trace, error) {
	var row traceRow
	err := s.db.Get(&row, `SELECT * FROM trace_log WHERE trace_id = ?`, traceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("trace %s not found", traceID)
	}
	if err != nil {
		return nil, err
	}
	return row.toTrace()
}

// TraceFilter bounds a ListTraces call.
type TraceFilter struct {
	Status  string
	Project *string
}

// ListTraces returns summary rows ordered by created_at DESC.
func (s *Store) ListTraces(f TraceFilter, limit, offset int) ([]*Trace, error) {
	query := `SELECT * FROM trace_log WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Project != nil {
		query += " AND (project = ? OR project IS NULL)"
		args = append(args, *f.Project)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []traceRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	traces := make([]*Trace, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTrace()
		if err != nil {
			return nil, err
		}
		traces = append(traces, t)
	}
	return traces, nil
}

// Distill sets a trace to distilled with the given awakening text. Promotion to a learning is the caller's responsibility
// (internal/trace composes this with internal/learn).
func (s *Store) Distill(traceID, awakening string, distilledToID *string) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE trace_log
		SET status = ?, awakening = ?, distilled_at = ?, distilled_to_id = ?
		WHERE trace_id = ?
	`, string(TraceDistilled), awakening, now, distilledToID, traceID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("trace %s not found", traceID)
	}
	return nil
}
