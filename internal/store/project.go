package store

import (
	"database/sql"
	"errors"

	"github.com/oracle-mind/oracle/internal/apperr"
)

// Project is a partition tag on documents and telemetry.
type Project struct {
	Slug        string
	Name        string
	Color       string
	Description *string
	GhqPath     *string
}

// UpsertProject creates or updates a project row.
func (s *Store) UpsertProject(p Project) error {
	_, err := s.db.Exec(`
		INSERT INTO projects (slug, name, color, description, ghq_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name, color = excluded.color,
			description = excluded.description, ghq_path = excluded.ghq_path
	`, p.Slug, p.Name, p.Color, p.Description, p.GhqPath)
	return err
}

// GetProject fetches a project by slug.
func (s *Store) GetProject(slug string) (*Project, error) {
	var (
		p                      Project
		description, ghqPath   sql.NullString
	)
	err := s.db.QueryRow(`SELECT slug, name, color, description, ghq_path FROM projects WHERE slug = ?`, slug).
		Scan(&p.Slug, &p.Name, &p.Color, &description, &ghqPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("project %s not found", slug)
	}
	if err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if ghqPath.Valid {
		p.GhqPath = &ghqPath.String
	}
	return &p, nil
}

// ListProjects returns every configured project.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT slug, name, color, description, ghq_path FROM projects ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var (
			p                    Project
			description, ghqPath sql.NullString
		)
		if err := rows.Scan(&p.Slug, &p.Name, &p.Color, &description, &ghqPath); err != nil {
			return nil, err
		}
		if description.Valid {
			p.Description = &description.String
		}
		if ghqPath.Valid {
			p.GhqPath = &ghqPath.String
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DetectProjectByGhqPath finds the project slug whose ghq_path is a
// prefix of the given repository identifier, used by project
// auto-detection from cwd.
func (s *Store) DetectProjectByGhqPath(ghqPath string) (*string, error) {
	var slug string
	err := s.db.QueryRow(`SELECT slug FROM projects WHERE ghq_path = ?`, ghqPath).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slug, nil
}
