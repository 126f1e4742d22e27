package note

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "composting.md", "# Tips for Home Composting\n\nKitchen scraps, browns vs greens, turning schedule.")

	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n.Format != Markdown {
		t.Errorf("expected markdown format, got %s", n.Format)
	}
	if n.TitleHint != "Tips for Home Composting" {
		t.Errorf("expected title hint from H1, got %q", n.TitleHint)
	}
	if n.SourcePath != path {
		t.Errorf("expected source path %q, got %q", path, n.SourcePath)
	}
}

func TestLoadPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "random thoughts about sourdough starters and hydration")

	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n.Format != Plaintext {
		t.Errorf("expected plaintext format, got %s", n.Format)
	}
	if n.TitleHint != "" {
		t.Errorf("plaintext notes have no title hint, got %q", n.TitleHint)
	}
}

func TestLoadRejectsShortContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tiny.txt", "hi")

	if _, err := Load(path); err == nil {
		t.Error("expected error for too-short note")
	}
}

func TestLoadNoHintWithoutLeadingH1(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "body-first.md", "Some intro paragraph first.\n\n# Late Heading\n\nMore text.")

	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n.TitleHint != "" {
		t.Errorf("expected no hint when document does not open with H1, got %q", n.TitleHint)
	}
}

func TestLoadDirOrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b-second.md", "# Second\n\nEnough content to pass the minimum check.")
	writeFile(t, dir, "a-first.txt", "first note with plenty of content")
	writeFile(t, dir, "ignore.json", `{"not": "a note"}`)
	writeFile(t, dir, "short.txt", "x")

	notes, errs := LoadDir(dir)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error (short file), got %d: %v", len(errs), errs)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if filepath.Base(notes[0].SourcePath) != "a-first.txt" {
		t.Errorf("expected a-first.txt first, got %s", notes[0].SourcePath)
	}
	if filepath.Base(notes[1].SourcePath) != "b-second.md" {
		t.Errorf("expected b-second.md second, got %s", notes[1].SourcePath)
	}
}

func TestLoadDirMissing(t *testing.T) {
	notes, errs := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if len(notes) != 0 || len(errs) == 0 {
		t.Errorf("expected error for missing dir, got %d notes, %v", len(notes), errs)
	}
}
