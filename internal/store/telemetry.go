package store

// Telemetry inserts are fire-and-forget: failures are logged to stderr by
// the caller but never propagate to the user-visible response. Each method here returns an error so callers *can* log it, but
// no caller in this codebase allows that error to abort a request.

// LogSearch appends one search_log row.
func (s *Store) LogSearch(query, docType, mode string, resultsCount, searchTimeMs int, project *string) error {
	_, err := s.db.Exec(`
		INSERT INTO search_log (query, type, mode, results_count, search_time_ms, project)
		VALUES (?, ?, ?, ?, ?, ?)
	`, query, docType, mode, resultsCount, searchTimeMs, project)
	return err
}

// LogDocumentAccess appends one document_access row per returned id
//.
func (s *Store) LogDocumentAccess(documentID, accessType string, project *string) error {
	_, err := s.db.Exec(`
		INSERT INTO document_access (document_id, access_type, project)
		VALUES (?, ?, ?)
	`, documentID, accessType, project)
	return err
}

// LogConsult appends one consult_log row.
func (s *Store) LogConsult(decision, context string, principlesFound, patternsFound int, guidance string, project *string) error {
	_, err := s.db.Exec(`
		INSERT INTO consult_log (decision, context, principles_found, patterns_found, guidance, project)
		VALUES (?, ?, ?, ?, ?, ?)
	`, decision, context, principlesFound, patternsFound, guidance, project)
	return err
}

// LogLearn appends one learn_log row.
func (s *Store) LogLearn(documentID, patternPreview, source, conceptsJoined string, project *string) error {
	_, err := s.db.Exec(`
		INSERT INTO learn_log (document_id, pattern_preview, source, concepts, project)
		VALUES (?, ?, ?, ?, ?)
	`, documentID, patternPreview, source, conceptsJoined, project)
	return err
}
