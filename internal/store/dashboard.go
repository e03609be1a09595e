package store

import (
	"encoding/json"
	"time"
)

// AllConcepts returns the concepts array (still JSON-encoded) for every
// document, for the dashboard's top-concepts aggregation. This is
// computed in Go rather than SQL JSON1 functions, since the concepts
// vocabulary is small and the aggregation runs rarely.
func (s *Store) AllConcepts() ([]string, error) {
	var rows []string
	if err := s.db.Select(&rows, `SELECT concepts FROM oracle_documents`); err != nil {
		return nil, err
	}

	var concepts []string
	for _, raw := range rows {
		if raw == "" {
			continue
		}
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			continue
		}
		concepts = append(concepts, parsed...)
	}
	return concepts, nil
}

// ConceptCounts returns concept tag counts, optionally restricted to
// documents of a given type, as an unordered map.
func (s *Store) ConceptCounts(docType string) (map[string]int, error) {
	query := `SELECT concepts FROM oracle_documents`
	var args []any
	if docType != "" && docType != string(TypeAll) {
		query += " WHERE type = ?"
		args = append(args, docType)
	}

	var rows []string
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, raw := range rows {
		if raw == "" {
			continue
		}
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			continue
		}
		for _, c := range parsed {
			counts[c]++
		}
	}
	return counts, nil
}

// CountSearchesSince counts search_log rows newer than since.
func (s *Store) CountSearchesSince(since time.Time) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM search_log WHERE created_at > ?`, since)
	return n, err
}

// CountConsultsSince counts consult_log rows newer than since.
func (s *Store) CountConsultsSince(since time.Time) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM consult_log WHERE created_at > ?`, since)
	return n, err
}

// CountLearnsSince counts learn_log rows newer than since.
func (s *Store) CountLearnsSince(since time.Time) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM learn_log WHERE created_at > ?`, since)
	return n, err
}

// CountDocumentsSince counts documents created after since, for growth().
func (s *Store) CountDocumentsSince(since time.Time) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM oracle_documents WHERE created_at > ?`, since)
	return n, err
}

// LogActivityRow is one row of a recent-activity listing.
type LogActivityRow struct {
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// RecentSearches returns up to limit recent search_log rows within the
// window starting at since.
func (s *Store) RecentSearches(since time.Time, limit int) ([]LogActivityRow, error) {
	var rows []LogActivityRow
	err := s.db.Select(&rows, `
		SELECT query as content, created_at FROM search_log
		WHERE created_at > ? ORDER BY created_at DESC LIMIT ?
	`, since, limit)
	return rows, err
}

// RecentConsults returns up to limit recent consult_log rows within the
// window starting at since.
func (s *Store) RecentConsults(since time.Time, limit int) ([]LogActivityRow, error) {
	var rows []LogActivityRow
	err := s.db.Select(&rows, `
		SELECT decision as content, created_at FROM consult_log
		WHERE created_at > ? ORDER BY created_at DESC LIMIT ?
	`, since, limit)
	return rows, err
}

// RecentLearns returns up to limit recent learn_log rows within the
// window starting at since.
func (s *Store) RecentLearns(since time.Time, limit int) ([]LogActivityRow, error) {
	var rows []LogActivityRow
	err := s.db.Select(&rows, `
		SELECT pattern_preview as content, created_at FROM learn_log
		WHERE created_at > ? ORDER BY created_at DESC LIMIT ?
	`, since, limit)
	return rows, err
}

// DailyCount is one day's count in a growth series.
type DailyCount struct {
	Day   string `db:"day"`
	Count int    `db:"count"`
}

// DailyDocumentCounts buckets new documents by day since since.
func (s *Store) DailyDocumentCounts(since time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := s.db.Select(&rows, `
		SELECT date(created_at) as day, COUNT(*) as count
		FROM oracle_documents WHERE created_at > ?
		GROUP BY day ORDER BY day
	`, since)
	return rows, err
}

// DailyConsultCounts buckets consultations by day since since.
func (s *Store) DailyConsultCounts(since time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := s.db.Select(&rows, `
		SELECT date(created_at) as day, COUNT(*) as count
		FROM consult_log WHERE created_at > ?
		GROUP BY day ORDER BY day
	`, since)
	return rows, err
}

// DailySearchCounts buckets searches by day since since.
func (s *Store) DailySearchCounts(since time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := s.db.Select(&rows, `
		SELECT date(created_at) as day, COUNT(*) as count
		FROM search_log WHERE created_at > ?
		GROUP BY day ORDER BY day
	`, since)
	return rows, err
}
