// Package learn implements C7: writing a new pattern to the markdown
// corpus and indexing it immediately for keyword search.
package learn

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/store"
)

var logger = applog.Named("learn")

// Input is the Learn request shape.
type Input struct {
	Pattern  string
	Source   *string
	Concepts []string
	Origin   *store.Origin
	Project  *string
	CWD      *string
	By       *string
}

// Result is what a successful Learn call returns.
type Result struct {
	ID   string
	Path string
}

var slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugWhitespace = regexp.MustCompile(`[\s-]+`)

const maxSlugLength = 50

// Slugify lowercases, keeps [a-z0-9\s-], collapses
// runs of whitespace/hyphen into a single hyphen, trim hyphens, cap at 50.
func Slugify(pattern string) string {
	lower := strings.ToLower(pattern)
	kept := slugDisallowed.ReplaceAllString(lower, "")
	collapsed := slugWhitespace.ReplaceAllString(kept, "-")
	trimmed := strings.Trim(collapsed, "-")
	if len(trimmed) > maxSlugLength {
		trimmed = trimmed[:maxSlugLength]
		trimmed = strings.TrimRight(trimmed, "-")
	}
	return trimmed
}

// Learner bundles the store and config a Learn call needs.
type Learner struct {
	store *store.Store
	cfg   config.Config
}

// New builds a Learner.
func New(s *store.Store, cfg config.Config) *Learner {
	return &Learner{store: s, cfg: cfg}
}

// Learn derives a stable id, writes the markdown file,
// index it for keyword search only, and log the event. The vector index
// is deliberately left untouched.
func (l *Learner) Learn(in Input) (*Result, error) {
	now := time.Now().UTC()
	date := now.Format("2006-01-02")

	slug := Slugify(in.Pattern)
	if slug == "" {
		return nil, apperr.Validation("pattern did not yield a usable slug")
	}

	filename := fmt.Sprintf("%s_%s.md", date, slug)
	dir := l.cfg.LearningsDir()
	path := filepath.Join(dir, filename)

	if _, err := os.Stat(path); err == nil {
		return nil, apperr.Conflict("File already exists")
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking learn destination: %w", err)
	}

	title := firstLine(in.Pattern)
	source := ""
	if in.Source != nil {
		source = *in.Source
	}

	markdown := renderMarkdown(title, in.Concepts, date, source, in.Pattern)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating learnings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("writing learn file: %w", err)
	}

	id := fmt.Sprintf("learning_%s_%s", date, slug)

	var createdBy *string
	if in.By != nil {
		createdBy = in.By
	}

	doc := &store.Document{
		ID:         id,
		Type:       store.TypeLearning,
		SourceFile: path,
		Concepts:   in.Concepts,
		CreatedAt:  now,
		UpdatedAt:  now,
		IndexedAt:  now,
		Origin:     in.Origin,
		Project:    in.Project,
		CreatedBy:  createdBy,
	}
	if err := l.store.UpsertDocument(doc); err != nil {
		return nil, fmt.Errorf("inserting learn document: %w", err)
	}

	if err := l.store.UpsertFTS(store.FTSRow{
		ID:       id,
		Type:     string(store.TypeLearning),
		Title:    title,
		Content:  markdown,
		Concepts: strings.Join(in.Concepts, " "),
	}); err != nil {
		return nil, fmt.Errorf("indexing learn document: %w", err)
	}

	preview := snippet(in.Pattern, 100)
	if err := l.store.LogLearn(id, preview, source, strings.Join(in.Concepts, " "), in.Project); err != nil {
		logger.Warn("failed to log learn", "err", err)
	}

	return &Result{ID: id, Path: path}, nil
}

// renderMarkdown builds the fixed front-matter block plus body.
func renderMarkdown(title string, concepts []string, date, source, pattern string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", title)
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(concepts, ", "))
	fmt.Fprintf(&b, "created: %s\n", date)
	fmt.Fprintf(&b, "source: %s\n", source)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n%s\n\n---\n*Added via Oracle Learn*\n", title, pattern)
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
