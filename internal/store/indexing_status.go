package store

import (
	"database/sql"
	"time"
)

// IndexingStatus mirrors the singleton indexing_status row.
type IndexingStatus struct {
	IsIndexing      bool
	ProgressCurrent int
	ProgressTotal   int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Error           *string
}

// GetIndexingStatus reads the singleton row (id=1).
func (s *Store) GetIndexingStatus() (*IndexingStatus, error) {
	var (
		isIndexing               bool
		current, total           int
		startedAt, completedAt   sql.NullTime
		errMsg                   sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT is_indexing, progress_current, progress_total, started_at, completed_at, error
		FROM indexing_status WHERE id = 1
	`).Scan(&isIndexing, &current, &total, &startedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	st := &IndexingStatus{
		IsIndexing:      isIndexing,
		ProgressCurrent: current,
		ProgressTotal:   total,
	}
	if startedAt.Valid {
		st.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		st.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		st.Error = &errMsg.String
	}
	return st, nil
}

// BeginIndexing sets the singleton row to the "indexing started" state
//.
func (s *Store) BeginIndexing(progressTotal int) error {
	_, err := s.db.Exec(`
		UPDATE indexing_status
		SET is_indexing = 1, progress_current = 0, progress_total = ?,
		    started_at = ?, completed_at = NULL, error = NULL
		WHERE id = 1
	`, progressTotal, time.Now())
	return err
}

// SetIndexingProgress advances progress_current.
func (s *Store) SetIndexingProgress(current int) error {
	_, err := s.db.Exec(`UPDATE indexing_status SET progress_current = ? WHERE id = 1`, current)
	return err
}

// FinishIndexing marks the job complete, successfully or not.
func (s *Store) FinishIndexing(total int, failure error) error {
	var errMsg *string
	if failure != nil {
		msg := failure.Error()
		errMsg = &msg
	}
	_, err := s.db.Exec(`
		UPDATE indexing_status
		SET is_indexing = 0, progress_current = ?, completed_at = ?, error = ?
		WHERE id = 1
	`, total, time.Now(), errMsg)
	return err
}

// ResetStaleIndexing clears is_indexing=1 on HTTP server startup, per the
// re-entrancy rule: "if we are starting, nothing is indexing."
func (s *Store) ResetStaleIndexing() error {
	_, err := s.db.Exec(`UPDATE indexing_status SET is_indexing = 0 WHERE id = 1`)
	return err
}
