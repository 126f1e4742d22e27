package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// outline is the analysis stage's structured output.
type outline struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subheadings []string `json:"subheadings"`
}

// metadata is the metadata stage's structured output.
type metadata struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// stripCodeFence removes a surrounding markdown code fence, which models
// emit even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseOutline(text string) (outline, error) {
	var o outline
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &o); err != nil {
		return outline{}, fmt.Errorf("parsing outline: %w", err)
	}
	o.Title = strings.TrimSpace(o.Title)
	o.Description = strings.TrimSpace(o.Description)
	if o.Title == "" {
		return outline{}, fmt.Errorf("outline missing title")
	}
	if o.Description == "" {
		return outline{}, fmt.Errorf("outline missing description")
	}
	var subs []string
	for _, s := range o.Subheadings {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	if len(subs) == 0 {
		return outline{}, fmt.Errorf("outline has no subheadings")
	}
	o.Subheadings = subs
	return o, nil
}

func parseMetadata(text string) (metadata, error) {
	var m metadata
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &m); err != nil {
		return metadata{}, fmt.Errorf("parsing metadata: %w", err)
	}
	m.Category = strings.TrimSpace(m.Category)
	if m.Category == "" {
		return metadata{}, fmt.Errorf("metadata missing category")
	}
	m.Tags = normalizeTags(m.Tags)
	return m, nil
}

// normalizeTags lowercases, trims, and dedupes while preserving order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
