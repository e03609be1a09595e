package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// ThreadStatus enumerates the thread lifecycle.
type ThreadStatus string

const (
	ThreadActive   ThreadStatus = "active"
	ThreadAnswered ThreadStatus = "answered"
	ThreadPending  ThreadStatus = "pending"
	ThreadClosed   ThreadStatus = "closed"
)

// MessageRole enumerates who authored a forum message.
type MessageRole string

const (
	RoleHuman  MessageRole = "human"
	RoleOracle MessageRole = "oracle"
	RoleClaude MessageRole = "claude"
)

// ForumThread is one discussion thread.
type ForumThread struct {
	ID                  string
	Title               string
	Status              ThreadStatus
	Project             *string
	CreatedBy           *string
	ExternalIssueURL    *string
	ExternalIssueNumber *int
	SyncedAt            *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ForumMessage is one message within a thread.
type ForumMessage struct {
	ID               string
	ThreadID         string
	Role             MessageRole
	Content          string
	Author           *string
	PrinciplesFound  []string
	PatternsFound    []string
	SearchQuery      *string
	CommentID        *string
	CreatedAt        time.Time
}

// CreateThread inserts a new forum thread.
func (s *Store) CreateThread(id, title string, createdBy *string, project *string) (*ForumThread, error) {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO forum_threads (id, title, status, project, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, title, string(ThreadActive), project, createdBy, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	return s.GetThread(id)
}

type threadRow struct {
	ID                  string         `db:"id"`
	Title               string         `db:"title"`
	Status              string         `db:"status"`
	Project             sql.NullString `db:"project"`
	CreatedBy           sql.NullString `db:"created_by"`
	ExternalIssueURL    sql.NullString `db:"external_issue_url"`
	ExternalIssueNumber sql.NullInt64  `db:"external_issue_number"`
	SyncedAt            sql.NullTime   `db:"synced_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r threadRow) toThread() *ForumThread {
	t := &ForumThread{
		ID:        r.ID,
		Title:     r.Title,
		Status:    ThreadStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Project.Valid {
		t.Project = &r.Project.String
	}
	if r.CreatedBy.Valid {
		t.CreatedBy = &r.CreatedBy.String
	}
	if r.ExternalIssueURL.Valid {
		t.ExternalIssueURL = &r.ExternalIssueURL.String
	}
	if r.ExternalIssueNumber.Valid {
		n := int(r.ExternalIssueNumber.Int64)
		t.ExternalIssueNumber = &n
	}
	if r.SyncedAt.Valid {
		t.SyncedAt = &r.SyncedAt.Time
	}
	return t
}

// GetThread fetches one thread by id.
func (s *Store) GetThread(id string) (*ForumThread, error) {
	var row threadRow
	err := s.db.Get(&row, `SELECT * FROM forum_threads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("thread %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toThread(), nil
}

// ListThreads returns threads, optionally filtered by status and project.
func (s *Store) ListThreads(status string, project *string, limit, offset int) ([]*ForumThread, error) {
	query := `SELECT * FROM forum_threads WHERE 1=1`
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

	var rows []threadRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	threads := make([]*ForumThread, 0, len(rows))
	for _, r := range rows {
		threads = append(threads, r.toThread())
	}
	return threads, nil
}

// UpdateThreadStatus sets a thread's status; transitions between the four
// states are all legal.
func (s *Store) UpdateThreadStatus(id string, status ThreadStatus) error {
	result, err := s.db.Exec(`UPDATE forum_threads SET status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("thread %s not found", id)
	}
	return nil
}

// TouchThread bumps updated_at.
func (s *Store) TouchThread(id string) error {
	_, err := s.db.Exec(`UPDATE forum_threads SET updated_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

// AddMessage inserts a forum message.
func (s *Store) AddMessage(m ForumMessage) error {
	principlesJSON, err := json.Marshal(m.PrinciplesFound)
	if err != nil {
		return err
	}
	patternsJSON, err := json.Marshal(m.PatternsFound)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO forum_messages
			(id, thread_id, role, content, author, principles_found, patterns_found, search_query, comment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ThreadID, string(m.Role), m.Content, m.Author, string(principlesJSON), string(patternsJSON), m.SearchQuery, m.CommentID, m.CreatedAt)
	return err
}

type messageRow struct {
	ID              string         `db:"id"`
	ThreadID        string         `db:"thread_id"`
	Role            string         `db:"role"`
	Content         string         `db:"content"`
	Author          sql.NullString `db:"author"`
	PrinciplesFound sql.NullString `db:"principles_found"`
	PatternsFound   sql.NullString `db:"patterns_found"`
	SearchQuery     sql.NullString `db:"search_query"`
	CommentID       sql.NullString `db:"comment_id"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r messageRow) toMessage() (*ForumMessage, error) {
	m := &ForumMessage{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Role:      MessageRole(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.Author.Valid {
		m.Author = &r.Author.String
	}
	if r.SearchQuery.Valid {
		m.SearchQuery = &r.SearchQuery.String
	}
	if r.CommentID.Valid {
		m.CommentID = &r.CommentID.String
	}
	if r.PrinciplesFound.Valid && r.PrinciplesFound.String != "" {
		if err := json.Unmarshal([]byte(r.PrinciplesFound.String), &m.PrinciplesFound); err != nil {
			return nil, fmt.Errorf("decoding principles_found: %w", err)
		}
	}
	if r.PatternsFound.Valid && r.PatternsFound.String != "" {
		if err := json.Unmarshal([]byte(r.PatternsFound.String), &m.PatternsFound); err != nil {
			return nil, fmt.Errorf("decoding patterns_found: %w", err)
		}
	}
	return m, nil
}

// ListMessages returns every message in a thread, oldest first.
func (s *Store) ListMessages(threadID string) ([]*ForumMessage, error) {
	var rows []messageRow
	if err := s.db.Select(&rows, `SELECT * FROM forum_messages WHERE thread_id = ? ORDER BY created_at ASC`, threadID); err != nil {
		return nil, err
	}
	messages := make([]*ForumMessage, 0, len(rows))
	for _, r := range rows {
		m, err := r.toMessage()
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
