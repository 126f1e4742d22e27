package post

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Tips for Home Composting", "tips-for-home-composting"},
		{"Hello, World!", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Already-hyphenated title", "already-hyphenated-title"},
		{"Under_scores too", "under-scores-too"},
		{"Multiple   spaces", "multiple-spaces"},
		{"Trailing punctuation...", "trailing-punctuation"},
		{"100% Pure Go", "100-pure-go"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.expected {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
