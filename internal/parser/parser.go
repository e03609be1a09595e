// Package parser chunks the three source subtrees (resonance, learnings,
// retrospectives) into Document records. Chunking rules here
// determine id stability and retrieval granularity; they must not drift
// once documents are in the wild.
package parser

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oracle-mind/oracle/internal/store"
)

// Document is one parsed chunk, ready for the indexer to persist.
// Unlike store.Document, this carries Content and Title — the parser's
// output, before the indexer splits it across the metadata row and the
// text-index row.
type Document struct {
	ID         string
	Type       store.DocType
	SourceFile string
	Title      string
	Content    string
	Concepts   []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IndexedAt  time.Time
}

// seedVocabulary is the fixed, deliberately small concept vocabulary
//. Editable, but changes alter existing concept
// sets for documents re-indexed afterward.
var seedVocabulary = []string{
	"trust", "pattern", "mirror", "append", "history", "context", "delete",
	"behavior", "intention", "decision", "human", "external", "brain",
	"command", "oracle", "timestamp", "immutable", "preserve",
}

var bulletLine = regexp.MustCompile(`^[-*]\s+`)

// ExtractConcepts lowercases title+body and keeps every seed word present
// as a substring. Deterministic; order follows seedVocabulary.
func ExtractConcepts(title, body string) []string {
	haystack := strings.ToLower(title + " " + body)
	var concepts []string
	for _, word := range seedVocabulary {
		if strings.Contains(haystack, word) {
			concepts = append(concepts, word)
		}
	}
	return concepts
}

// ParseResonanceFile splits one resonance file on "### " headings, emitting
// one principle Document per section plus one sub-document per top-level
// bullet within it.
func ParseResonanceFile(path string, now time.Time) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resonance file %s: %w", path, err)
	}
	stem := fileStem(path)
	sections := splitOnHeading(string(raw), "### ")

	var docs []Document
	sectionIndex := 0
	for _, sec := range sections {
		body := strings.TrimSpace(sec.body)
		if body == "" {
			continue
		}
		id := fmt.Sprintf("resonance_%s_%d", stem, sectionIndex)
		content := fmt.Sprintf("%s: %s", sec.heading, body)
		docs = append(docs, Document{
			ID:         id,
			Type:       store.TypePrinciple,
			SourceFile: path,
			Title:      sec.heading,
			Content:    content,
			Concepts:   ExtractConcepts(sec.heading, body),
			CreatedAt:  now,
			UpdatedAt:  now,
			IndexedAt:  now,
		})

		bulletIndex := 0
		for _, line := range strings.Split(body, "\n") {
			trimmed := strings.TrimSpace(line)
			if !bulletLine.MatchString(trimmed) {
				continue
			}
			bulletText := strings.TrimSpace(bulletLine.ReplaceAllString(trimmed, ""))
			if bulletText == "" {
				continue
			}
			subID := fmt.Sprintf("%s_sub_%d", id, bulletIndex)
			docs = append(docs, Document{
				ID:         subID,
				Type:       store.TypePrinciple,
				SourceFile: path,
				Title:      sec.heading,
				Content:    bulletText,
				Concepts:   ExtractConcepts(sec.heading, bulletText),
				CreatedAt:  now,
				UpdatedAt:  now,
				IndexedAt:  now,
			})
			bulletIndex++
		}
		sectionIndex++
	}
	return docs, nil
}

// ParseLearningFile splits one learning file on "## " headings, prefixed by
// the front-matter title if present, else the filename stem.
func ParseLearningFile(path string, now time.Time) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading learning file %s: %w", path, err)
	}
	stem := fileStem(path)
	title, body := splitFrontMatter(string(raw))
	if title == "" {
		title = stem
	}

	sections := splitOnHeading(body, "## ")
	if len(sections) == 0 || (len(sections) == 1 && sections[0].heading == "") {
		trimmed := strings.TrimSpace(body)
		return []Document{{
			ID:         fmt.Sprintf("learning_%s", stem),
			Type:       store.TypeLearning,
			SourceFile: path,
			Title:      title,
			Content:    trimmed,
			Concepts:   ExtractConcepts(title, trimmed),
			CreatedAt:  now,
			UpdatedAt:  now,
			IndexedAt:  now,
		}}, nil
	}

	var docs []Document
	for i, sec := range sections {
		sectionTitle := title
		if sec.heading != "" {
			sectionTitle = fmt.Sprintf("%s: %s", title, sec.heading)
		}
		content := strings.TrimSpace(sec.body)
		docs = append(docs, Document{
			ID:         fmt.Sprintf("learning_%s_%d", stem, i),
			Type:       store.TypeLearning,
			SourceFile: path,
			Title:      sectionTitle,
			Content:    content,
			Concepts:   ExtractConcepts(sectionTitle, content),
			CreatedAt:  now,
			UpdatedAt:  now,
			IndexedAt:  now,
		})
	}
	return docs, nil
}

const retroMinSectionLength = 50

// ParseRetrospectiveTree recursively walks root, splitting every file on
// "## " and skipping sections whose body is shorter than 50 characters
//.
func ParseRetrospectiveTree(root string, now time.Time) ([]Document, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isMarkdown(path) {
			return nil
		}
		fileDocs, err := parseRetrospectiveFile(path, now)
		if err != nil {
			return err
		}
		docs = append(docs, fileDocs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking retrospective tree %s: %w", root, err)
	}
	return docs, nil
}

func parseRetrospectiveFile(path string, now time.Time) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading retrospective file %s: %w", path, err)
	}
	basename := basenameWithoutExt(path)
	sections := splitOnHeading(string(raw), "## ")

	var docs []Document
	index := 0
	for _, sec := range sections {
		body := strings.TrimSpace(sec.body)
		if len(body) < retroMinSectionLength {
			continue
		}
		id := fmt.Sprintf("retro_%s_%d", basename, index)
		docs = append(docs, Document{
			ID:         id,
			Type:       store.TypeRetro,
			SourceFile: path,
			Title:      sec.heading,
			Content:    body,
			Concepts:   ExtractConcepts(sec.heading, body),
			CreatedAt:  now,
			UpdatedAt:  now,
			IndexedAt:  now,
		})
		index++
	}
	return docs, nil
}

type heading struct {
	heading string
	body    string
}

// splitOnHeading splits text on lines beginning with marker (e.g. "### "),
// returning one section per heading with everything up to the next heading
// (or EOF) as its body. Content preceding the first heading, if non-blank,
// is returned as a section with an empty heading.
func splitOnHeading(text, marker string) []heading {
	var sections []heading
	var currentHeading string
	var currentBody strings.Builder
	started := false

	flush := func() {
		if started {
			sections = append(sections, heading{heading: currentHeading, body: currentBody.String()})
		}
		currentBody.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, marker) {
			flush()
			currentHeading = strings.TrimSpace(strings.TrimPrefix(line, marker))
			started = true
			continue
		}
		if !started {
			if strings.TrimSpace(line) == "" {
				continue
			}
			started = true
			currentHeading = ""
		}
		currentBody.WriteString(line)
		currentBody.WriteString("\n")
	}
	flush()
	return sections
}

var frontMatterTitle = regexp.MustCompile(`(?m)^title:\s*(.+)$`)

// splitFrontMatter extracts a YAML front-matter "title:" field and returns
// the remaining body with the front-matter block removed.
func splitFrontMatter(text string) (title, body string) {
	if !strings.HasPrefix(text, "---\n") {
		return "", text
	}
	end := strings.Index(text[4:], "\n---")
	if end == -1 {
		return "", text
	}
	block := text[4 : 4+end]
	rest := text[4+end+len("\n---"):]
	rest = strings.TrimPrefix(rest, "\n")

	if m := frontMatterTitle.FindStringSubmatch(block); m != nil {
		title = strings.Trim(strings.TrimSpace(m[1]), `"'`)
	}
	return title, rest
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func basenameWithoutExt(path string) string {
	return fileStem(path)
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
