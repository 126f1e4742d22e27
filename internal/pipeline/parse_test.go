package pipeline

import (
	"strings"
	"testing"
)

func TestParseOutline(t *testing.T) {
	text := `{"title": "Tips for Home Composting", "description": "Turn scraps into soil.", "subheadings": ["Browns and Greens", "Turning the Pile", "Troubleshooting"]}`
	ol, err := parseOutline(text)
	if err != nil {
		t.Fatalf("parseOutline: %v", err)
	}
	if ol.Title != "Tips for Home Composting" {
		t.Errorf("unexpected title: %q", ol.Title)
	}
	if len(ol.Subheadings) != 3 {
		t.Errorf("expected 3 subheadings, got %d", len(ol.Subheadings))
	}
}

func TestParseOutlineCodeFenced(t *testing.T) {
	text := "```json\n{\"title\": \"T\", \"description\": \"D\", \"subheadings\": [\"A\", \"B\"]}\n```"
	ol, err := parseOutline(text)
	if err != nil {
		t.Fatalf("parseOutline: %v", err)
	}
	if ol.Title != "T" || len(ol.Subheadings) != 2 {
		t.Errorf("unexpected outline: %+v", ol)
	}
}

func TestParseOutlineRejectsMissingFields(t *testing.T) {
	tests := []string{
		`not json at all`,
		`{"description": "D", "subheadings": ["A"]}`,
		`{"title": "T", "subheadings": ["A"]}`,
		`{"title": "T", "description": "D", "subheadings": []}`,
		`{"title": "T", "description": "D", "subheadings": ["  "]}`,
	}
	for _, text := range tests {
		if _, err := parseOutline(text); err == nil {
			t.Errorf("expected error for %q", text)
		}
	}
}

func TestParseOutlineDropsBlankSubheadings(t *testing.T) {
	text := `{"title": "T", "description": "D", "subheadings": ["A", "", "  B  "]}`
	ol, err := parseOutline(text)
	if err != nil {
		t.Fatalf("parseOutline: %v", err)
	}
	if len(ol.Subheadings) != 2 || ol.Subheadings[1] != "B" {
		t.Errorf("unexpected subheadings: %v", ol.Subheadings)
	}
}

func TestParseMetadata(t *testing.T) {
	md, err := parseMetadata(`{"category": " Home ", "tags": ["Compost", "garden", "compost", ""]}`)
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if md.Category != "Home" {
		t.Errorf("unexpected category: %q", md.Category)
	}
	if len(md.Tags) != 2 || md.Tags[0] != "compost" || md.Tags[1] != "garden" {
		t.Errorf("expected normalized deduped tags, got %v", md.Tags)
	}
}

func TestParseMetadataRejectsMissingCategory(t *testing.T) {
	if _, err := parseMetadata(`{"tags": ["a", "b"]}`); err == nil {
		t.Error("expected error for missing category")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n{}\n```  ", "{}"},
		{"```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" Go ", "go", "TESTING", "", "go"})
	want := []string{"go", "testing"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("normalizeTags = %v, want %v", got, want)
	}
}
