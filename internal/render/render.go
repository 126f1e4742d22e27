// Package render turns a completed post into a markdown document with TOML
// frontmatter and persists generated images. It is the only place the
// pipeline's output touches the filesystem.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/fikebr/notes-to-blog/internal/post"
)

const documentTemplate = `+++
title = "{{escape .Title}}"
description = "{{escape .Description}}"
date = {{.Date}}
draft = {{.Draft}}

[taxonomies]
categories = ["{{.Category}}"]
tags = [{{tags .Tags}}]
+++

{{- if .HeaderImage}}

![{{escape .HeaderImage.AltText}}]({{.HeaderImage.FilePath}})
{{- end}}

{{.Introduction}}
{{range .Subheadings}}
## {{.Title}}
{{if .Image}}
![{{escape .Image.AltText}}]({{.Image.FilePath}})
{{end}}
{{.Body}}
{{end}}
{{.Conclusion}}
`

var funcs = template.FuncMap{
	"escape": escapeTOML,
	"tags":   tagList,
}

var docTmpl = template.Must(template.New("document").Funcs(funcs).Parse(documentTemplate))

// escapeTOML escapes quotes and backslashes for a TOML string value.
func escapeTOML(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", " ")
}

func tagList(tags []string) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = `"` + escapeTOML(t) + `"`
	}
	return strings.Join(quoted, ", ")
}

type documentData struct {
	Title        string
	Description  string
	Date         string
	Draft        bool
	Category     string
	Tags         []string
	HeaderImage  *post.Image
	Introduction string
	Subheadings  []post.Subheading
	Conclusion   string
}

// Document renders the full markdown document for a completed post.
func Document(p *post.Post) (string, error) {
	fm := p.FrontMatter
	if fm == nil {
		return "", fmt.Errorf("post %q has no frontmatter", p.Title)
	}
	date := fm.Date
	if date.IsZero() {
		date = time.Now()
	}
	data := documentData{
		Title:        fm.Title,
		Description:  fm.Description,
		Date:         date.Format("2006-01-02"),
		Draft:        fm.Draft,
		Category:     fm.Category,
		Tags:         fm.Tags,
		HeaderImage:  p.HeaderImage(),
		Introduction: p.Introduction,
		Subheadings:  p.Subheadings,
		Conclusion:   p.Conclusion,
	}

	var b strings.Builder
	if err := docTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}
	return collapseBlankLines(b.String()), nil
}

// collapseBlankLines squashes runs of blank lines the template leaves
// behind into single separators.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.Join(out, "\n") + "\n"
}

// Writer persists rendered documents and image payloads.
type Writer struct {
	OutputDir string
	ImagesDir string
}

func NewWriter(outputDir, imagesDir string) *Writer {
	if imagesDir == "" {
		imagesDir = filepath.Join(outputDir, "images")
	}
	return &Writer{OutputDir: outputDir, ImagesDir: imagesDir}
}

// Write renders the post and writes <filename>.md under the output
// directory, returning the written path.
func (w *Writer) Write(p *post.Post) (string, error) {
	if p.Filename == "" {
		return "", fmt.Errorf("post %q has no filename", p.Title)
	}
	doc, err := Document(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(w.OutputDir, p.Filename+".md")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Save stores one image payload under a per-post subdirectory and returns
// the document-relative path. Implements pipeline.ImageStore.
func (w *Writer) Save(slug, name string, data []byte) (string, error) {
	dir := filepath.Join(w.ImagesDir, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating images dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image %s: %w", path, err)
	}
	return filepath.ToSlash(filepath.Join("images", slug, name)), nil
}
