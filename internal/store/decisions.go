package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// DecisionStatus enumerates the decision lifecycle.
type DecisionStatus string

const (
	DecisionPending      DecisionStatus = "pending"
	DecisionParked       DecisionStatus = "parked"
	DecisionResearching  DecisionStatus = "researching"
	DecisionDecided      DecisionStatus = "decided"
	DecisionImplemented  DecisionStatus = "implemented"
	DecisionClosed       DecisionStatus = "closed"
)

// legalTransitions is the decision lifecycle's edge set.
var legalTransitions = map[DecisionStatus]map[DecisionStatus]bool{
	DecisionPending: {
		DecisionParked: true, DecisionResearching: true, DecisionDecided: true, DecisionClosed: true,
	},
	DecisionParked: {
		DecisionPending: true, DecisionResearching: true, DecisionDecided: true, DecisionClosed: true,
	},
	DecisionResearching: {
		DecisionPending: true, DecisionParked: true, DecisionDecided: true, DecisionClosed: true,
	},
	DecisionDecided: {
		DecisionImplemented: true, DecisionClosed: true,
	},
	DecisionImplemented: {
		DecisionClosed: true,
	},
	DecisionClosed: {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to DecisionStatus) bool {
	return legalTransitions[from][to]
}

// Decision is one decision record.
type Decision struct {
	ID         string
	Title      string
	Status     DecisionStatus
	Context    *string
	Options    []string
	Decision   *string
	Rationale  *string
	Project    *string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DecidedAt  *time.Time
	DecidedBy  *string
}

// CreateDecision inserts a new decision in the pending state.
func (s *Store) CreateDecision(d *Decision) error {
	optionsJSON, err := json.Marshal(d.Options)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(d.Tags)
	if err != nil {
		return err
	}
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.Status == "" {
		d.Status = DecisionPending
	}

	_, err = s.db.Exec(`
		INSERT INTO decisions (id, title, status, context, options, decision, rationale, project, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, string(d.Status), d.Context, string(optionsJSON), d.Decision, d.Rationale, d.Project, string(tagsJSON), d.CreatedAt, d.UpdatedAt)
	return err
}

type decisionRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Status    string         `db:"status"`
	Context   sql.NullString `db:"context"`
	Options   string         `db:"options"`
	Decision  sql.NullString `db:"decision"`
	Rationale sql.NullString `db:"rationale"`
	Project   sql.NullString `db:"project"`
	Tags      string         `db:"tags"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DecidedAt sql.NullTime   `db:"decided_at"`
	DecidedBy sql.NullString `db:"decided_by"`
}

func (r decisionRow) toDecision() (*Decision, error) {
	d := &Decision{
		ID:        r.ID,
		Title:     r.Title,
		Status:    DecisionStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Context.Valid {
		d.Context = &r.Context.String
	}
	if r.Decision.Valid {
		d.Decision = &r.Decision.String
	}
	if r.Rationale.Valid {
		d.Rationale = &r.Rationale.String
	}
	if r.Project.Valid {
		d.Project = &r.Project.String
	}
	if r.DecidedAt.Valid {
		d.DecidedAt = &r.DecidedAt.Time
	}
	if r.DecidedBy.Valid {
		d.DecidedBy = &r.DecidedBy.String
	}
	if r.Options != "" {
		if err := json.Unmarshal([]byte(r.Options), &d.Options); err != nil {
			return nil, fmt.Errorf("decoding options: %w", err)
		}
	}
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &d.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	return d, nil
}

// GetDecision fetches one decision by id.
func (s *Store) GetDecision(id string) (*Decision, error) {
	var row decisionRow
	err := s.db.Get(&row, `SELECT * FROM decisions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("decision %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toDecision()
}

// ListDecisions returns decisions, optionally filtered by status/project.
func (s *Store) ListDecisions(status string, project *string, limit, offset int) ([]*Decision, error) {
	query := `SELECT * FROM decisions WHERE 1=1`
	var args []any
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if project != nil {
		query += " AND (project = ? OR project IS NULL)"
		args = append(args, *project)
	}
	query += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []decisionRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	decisions := make([]*Decision, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDecision()
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// UpdateDecision patches the mutable free-form fields of a decision (title,
// context, options, decision, rationale, tags) without touching status.
func (s *Store) UpdateDecision(d *Decision) error {
	optionsJSON, err := json.Marshal(d.Options)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(d.Tags)
	if err != nil {
		return err
	}
	result, err := s.db.Exec(`
		UPDATE decisions
		SET title = ?, context = ?, options = ?, decision = ?, rationale = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, d.Title, d.Context, string(optionsJSON), d.Decision, d.Rationale, string(tagsJSON), time.Now(), d.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("decision %s not found", d.ID)
	}
	return nil
}

// TransitionDecision moves a decision to newStatus if the edge is legal
//. Entering "decided" stamps decided_at/decided_by.
func (s *Store) TransitionDecision(id string, newStatus DecisionStatus, decidedBy *string) (*Decision, error) {
	current, err := s.GetDecision(id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.Status, newStatus) {
		return nil, apperr.Conflict("illegal transition %s -> %s", current.Status, newStatus)
	}

	now := time.Now()
	if newStatus == DecisionDecided {
		_, err = s.db.Exec(`
			UPDATE decisions SET status = ?, decided_at = ?, decided_by = ?, updated_at = ? WHERE id = ?
		`, string(newStatus), now, decidedBy, now, id)
	} else {
		_, err = s.db.Exec(`UPDATE decisions SET status = ?, updated_at = ? WHERE id = ?`, string(newStatus), now, id)
	}
	if err != nil {
		return nil, err
	}

	return s.GetDecision(id)
}
