// Package post holds the blog-post artifact that accumulates through the
// pipeline. Fields are filled monotonically: a stage may set an empty field
// or append to a sequence, never clear what an earlier stage produced.
package post

import (
	"fmt"
	"strings"
	"time"
)

// Image is one generated illustration, immutable once created.
type Image struct {
	Prompt   string
	FilePath string
	AltText  string
}

// Subheading is one section of the post. Title comes from analysis,
// ResearchNotes from research, Body from writing, Image from illustration.
type Subheading struct {
	Title         string
	ResearchNotes string
	Body          string
	Image         *Image
}

// FrontMatter is the metadata block rendered ahead of the document body.
type FrontMatter struct {
	Title         string
	Description   string
	Date          time.Time
	Draft         bool
	Category      string
	Tags          []string
	FeaturedImage string
}

// Post is the workflow artifact threaded through the pipeline stages.
type Post struct {
	SourcePath   string
	Title        string
	Description  string
	Subheadings  []Subheading
	Introduction string
	Conclusion   string
	Category     Category
	Tags         []string
	// Images holds every generated image in document order, header first.
	Images      []Image
	FrontMatter *FrontMatter
	Filename    string
}

// Clone returns a deep copy. The orchestrator hands each stage attempt a
// clone so a failed attempt cannot leak partial mutations.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Subheadings = make([]Subheading, len(p.Subheadings))
	for i, s := range p.Subheadings {
		cp.Subheadings[i] = s
		if s.Image != nil {
			img := *s.Image
			cp.Subheadings[i].Image = &img
		}
	}
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Images = append([]Image(nil), p.Images...)
	if p.FrontMatter != nil {
		fm := *p.FrontMatter
		fm.Tags = append([]string(nil), p.FrontMatter.Tags...)
		cp.FrontMatter = &fm
	}
	return &cp
}

// HeaderImage returns the header illustration, or nil before illustration.
func (p *Post) HeaderImage() *Image {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}

// SubheadingTitles returns the section titles in document order.
func (p *Post) SubheadingTitles() []string {
	titles := make([]string, len(p.Subheadings))
	for i, s := range p.Subheadings {
		titles[i] = s.Title
	}
	return titles
}

// MissingFields lists everything a completed post still lacks. Empty result
// means the post is ready to render.
func (p *Post) MissingFields() []string {
	var missing []string
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Introduction == "" {
		missing = append(missing, "introduction")
	}
	if p.Conclusion == "" {
		missing = append(missing, "conclusion")
	}
	if len(p.Subheadings) == 0 {
		missing = append(missing, "subheadings")
	}
	for i, s := range p.Subheadings {
		if s.Body == "" {
			missing = append(missing, fmt.Sprintf("subheadings[%d].body (%s)", i, s.Title))
		}
	}
	if p.HeaderImage() == nil {
		missing = append(missing, "header image")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if len(p.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if p.Filename == "" {
		missing = append(missing, "filename")
	}
	return missing
}

// WordCount counts words across introduction, bodies, and conclusion.
func (p *Post) WordCount() int {
	total := len(strings.Fields(p.Introduction)) + len(strings.Fields(p.Conclusion))
	for _, s := range p.Subheadings {
		total += len(strings.Fields(s.Body))
	}
	return total
}

// ReadingTime estimates reading time in minutes at 200 wpm, minimum 1.
func (p *Post) ReadingTime() int {
	mins := p.WordCount() / 200
	if mins < 1 {
		return 1
	}
	return mins
}
