// Package note loads raw note files from disk and prepares them for the
// pipeline. Notes are immutable once loaded.
package note

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Format identifies how a note's content is encoded.
type Format string

const (
	Markdown  Format = "markdown"
	Plaintext Format = "plaintext"
)

// minContentLen guards against accidentally processing empty or junk files.
const minContentLen = 10

// Note is one raw input file.
type Note struct {
	Content    string
	SourcePath string
	Format     Format
	// TitleHint is the leading H1 of a markdown note, if present.
	TitleHint string
}

// Load reads a single note file. The format is sniffed from the extension.
func Load(path string) (Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Note{}, fmt.Errorf("reading note: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if len(content) < minContentLen {
		return Note{}, fmt.Errorf("note %s: content too short (%d chars, need %d)", path, len(content), minContentLen)
	}

	n := Note{
		Content:    content,
		SourcePath: path,
		Format:     formatFor(path),
	}
	if n.Format == Markdown {
		n.TitleHint = leadingHeading(content)
	}
	return n, nil
}

// LoadDir loads every note file in dir, ordered by filename. Unsupported
// extensions are skipped; unreadable or too-short files are returned as
// per-file errors without aborting the rest.
func LoadDir(dir string) ([]Note, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("reading inbox %s: %w", dir, err)}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".md", ".markdown", ".txt", ".text":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		notes []Note
		errs  []error
	)
	for _, name := range names {
		n, err := Load(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		notes = append(notes, n)
	}
	return notes, errs
}

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return Markdown
	default:
		return Plaintext
	}
}

// leadingHeading returns the text of the first level-1 heading in a markdown
// document, or "" if the document does not open with one.
func leadingHeading(content string) string {
	source := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		h, ok := node.(*ast.Heading)
		if !ok {
			// Anything before the first heading means the document
			// does not open with a title.
			return ""
		}
		if h.Level != 1 {
			return ""
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}
