package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fikebr/notes-to-blog/internal/cache"
	"github.com/fikebr/notes-to-blog/internal/note"
	"github.com/fikebr/notes-to-blog/internal/post"
	"github.com/fikebr/notes-to-blog/internal/service"
)

// timeNow is swapped out by tests that pin the frontmatter date.
var timeNow = time.Now

// analyze derives title, description, and subheading titles from the raw
// note. The LLM being down is fatal: nothing downstream can proceed.
func (o *Orchestrator) analyze(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if s := o.registry.Status(ctx, service.CapabilityLLM); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("llm: %w: %v", service.ErrUnavailable, s.Err))
	}

	hint := ""
	if n.TitleHint != "" {
		hint = fmt.Sprintf(" (the note suggests %q)", n.TitleHint)
	}
	prompt := fmt.Sprintf(analyzePrompt, hint, o.cfg.MinSubheadings, o.cfg.MaxSubheadings, n.Content)

	text, err := o.registry.LLM().Complete(ctx, prompt)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}
	ol, err := parseOutline(text)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}

	p.Title = ol.Title
	p.Description = ol.Description
	p.Subheadings = make([]post.Subheading, len(ol.Subheadings))
	for i, t := range ol.Subheadings {
		p.Subheadings[i] = post.Subheading{Title: t}
	}
	return Success(p)
}

// outlineValidate gates the subheading count. An out-of-range outline is
// revised through the LLM with explicit count guidance; still out of range
// counts as recoverable so the orchestrator's budget applies.
func (o *Orchestrator) outlineValidate(ctx context.Context, n note.Note, p *post.Post) StageResult {
	count := len(p.Subheadings)
	if count >= o.cfg.MinSubheadings && count <= o.cfg.MaxSubheadings {
		return Success(p)
	}

	if s := o.registry.Status(ctx, service.CapabilityLLM); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("llm: %w: %v", service.ErrUnavailable, s.Err))
	}

	prompt := fmt.Sprintf(reviseOutlinePrompt,
		count, o.cfg.MinSubheadings, o.cfg.MaxSubheadings,
		p.Title, p.Description,
		"- "+strings.Join(p.SubheadingTitles(), "\n- "),
		n.Content)

	text, err := o.registry.LLM().Complete(ctx, prompt)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}
	ol, err := parseOutline(text)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}
	revised := len(ol.Subheadings)
	if revised < o.cfg.MinSubheadings || revised > o.cfg.MaxSubheadings {
		return Recoverable(FailureValidation,
			fmt.Errorf("subheading count %d outside [%d,%d]", revised, o.cfg.MinSubheadings, o.cfg.MaxSubheadings))
	}

	// Research has not run yet, so replacing titles refines the outline
	// rather than unsetting later work.
	p.Subheadings = make([]post.Subheading, revised)
	for i, t := range ol.Subheadings {
		p.Subheadings[i] = post.Subheading{Title: t}
	}
	return Success(p)
}

// research fills ResearchNotes for each subheading, cache first. Research
// is best effort: a subheading whose searches keep failing degrades to
// empty notes instead of killing the note. Subheadings are fetched
// concurrently and rejoined in outline order.
func (o *Orchestrator) research(ctx context.Context, n note.Note, p *post.Post) StageResult {
	status := o.registry.Status(ctx, service.CapabilitySearch)
	if status.State == service.Unavailable {
		// Degraded completion: every subheading proceeds unresearched.
		return Success(p)
	}

	notes := make([]string, len(p.Subheadings))
	var wg sync.WaitGroup
	for i := range p.Subheadings {
		if p.Subheadings[i].ResearchNotes != "" {
			notes[i] = p.Subheadings[i].ResearchNotes
			continue
		}
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()
			notes[i] = o.researchOne(ctx, title)
		}(i, p.Subheadings[i].Title)
	}
	wg.Wait()

	for i := range p.Subheadings {
		p.Subheadings[i].ResearchNotes = notes[i]
	}
	return Success(p)
}

// researchOne resolves one subheading's research through the cache or a
// live search. Failures return empty notes.
func (o *Orchestrator) researchOne(ctx context.Context, title string) string {
	key := cache.NormalizeQuery(title)

	if payload, ok, err := o.cache.Get(key); err == nil && ok {
		var results []service.SearchResult
		if json.Unmarshal([]byte(payload), &results) == nil {
			return formatResearchNotes(results)
		}
	}

	results, err := o.registry.Search().Search(ctx, key, o.cfg.SearchMaxResults)
	if err != nil || len(results) == 0 {
		return ""
	}

	if payload, err := json.Marshal(results); err == nil {
		// Cache misses on a later read just re-search; ignore put errors.
		_ = o.cache.Put(key, string(payload))
	}
	return formatResearchNotes(results)
}

func formatResearchNotes(results []service.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Title)
		if r.Snippet != "" {
			b.WriteString(": ")
			b.WriteString(r.Snippet)
		}
		b.WriteString(" (")
		b.WriteString(r.URL)
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// writeIntroConclusion writes the framing copy around the sections.
func (o *Orchestrator) writeIntroConclusion(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if s := o.registry.Status(ctx, service.CapabilityLLM); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("llm: %w: %v", service.ErrUnavailable, s.Err))
	}

	sections := strings.Join(p.SubheadingTitles(), ", ")

	if p.Introduction == "" {
		text, err := o.registry.LLM().Complete(ctx, fmt.Sprintf(introPrompt, p.Title, p.Description, sections))
		if err != nil {
			return Recoverable(FailureCapability, err)
		}
		if text == "" {
			return Recoverable(FailureCapability, fmt.Errorf("empty introduction"))
		}
		p.Introduction = text
	}

	if p.Conclusion == "" {
		text, err := o.registry.LLM().Complete(ctx, fmt.Sprintf(conclusionPrompt, p.Title, sections))
		if err != nil {
			return Recoverable(FailureCapability, err)
		}
		if text == "" {
			return Recoverable(FailureCapability, fmt.Errorf("empty conclusion"))
		}
		p.Conclusion = text
	}
	return Success(p)
}

// writeSubheadings writes each section body in outline order. Sections
// already written by a previous attempt are kept, so a retry only redoes
// the failed remainder.
func (o *Orchestrator) writeSubheadings(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if s := o.registry.Status(ctx, service.CapabilityLLM); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("llm: %w: %v", service.ErrUnavailable, s.Err))
	}

	for i := range p.Subheadings {
		if p.Subheadings[i].Body != "" {
			continue
		}
		sub := p.Subheadings[i]
		text, err := o.registry.LLM().Complete(ctx,
			fmt.Sprintf(sectionPrompt, p.Title, p.Description, sub.Title, sub.ResearchNotes))
		if err != nil {
			return Recoverable(FailureCapability, err)
		}
		if text == "" {
			return Recoverable(FailureCapability, fmt.Errorf("empty body for section %q", sub.Title))
		}
		p.Subheadings[i].Body = text
	}
	return Success(p)
}

// illustrate generates the header image plus one image per subheading. The
// header is mandatory (the output format requires it), so image capability
// down or header retry exhaustion kills the note. A subheading image that
// keeps failing is skipped instead.
func (o *Orchestrator) illustrate(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if s := o.registry.Status(ctx, service.CapabilityImage); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("image: %w: %v", service.ErrUnavailable, s.Err))
	}

	slug := post.Slugify(p.Title)
	gen := o.registry.Image()

	if p.HeaderImage() == nil {
		prompt := fmt.Sprintf(headerImagePrompt, p.Title, p.Description)
		img, err := o.generateImage(ctx, gen, slug, "header", prompt, "Header illustration for "+p.Title)
		if err != nil {
			return Recoverable(FailureCapability, fmt.Errorf("header image: %w", err))
		}
		p.Images = append(p.Images, *img)
	}

	for i := range p.Subheadings {
		if p.Subheadings[i].Image != nil {
			continue
		}
		sub := p.Subheadings[i]
		prompt := fmt.Sprintf(sectionImagePrompt, sub.Title, p.Title)
		img, err := o.generateImage(ctx, gen, slug, fmt.Sprintf("section-%d", i+1), prompt, "Illustration for "+sub.Title)
		if err != nil {
			// Sections ship without an image rather than blocking.
			o.emit(Event{SourcePath: n.SourcePath, Stage: "illustrate", Type: EventImageSkipped, Err: err})
			continue
		}
		p.Subheadings[i].Image = img
		p.Images = append(p.Images, *img)
	}
	return Success(p)
}

func (o *Orchestrator) generateImage(ctx context.Context, gen service.ImageGenerator, slug, label, prompt, alt string) (*post.Image, error) {
	data, ext, err := gen.Generate(ctx, prompt, o.cfg.ImageWidth, o.cfg.ImageHeight)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s%s", label, uuid.NewString()[:8], ext)
	path, err := o.images.Save(slug, name, data)
	if err != nil {
		return nil, fmt.Errorf("storing image %s: %w", name, err)
	}
	return &post.Image{Prompt: prompt, FilePath: path, AltText: alt}, nil
}

// selectMetadata picks the category and tags, then assembles frontmatter
// and the output filename. Structural violations are fatal with no retry:
// a model that picks an invalid category gets no silent default.
func (o *Orchestrator) selectMetadata(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if s := o.registry.Status(ctx, service.CapabilityLLM); s.State == service.Unavailable {
		return Fatal(FailureUnavailable, fmt.Errorf("llm: %w: %v", service.ErrUnavailable, s.Err))
	}

	suggestion := post.SuggestCategory(p.Title, n.Content)
	prompt := fmt.Sprintf(metadataPrompt,
		strings.Join(post.CategoryNames(), ", "), suggestion,
		o.cfg.MinTags, o.cfg.MaxTags,
		p.Title, p.Description, strings.Join(p.SubheadingTitles(), ", "))

	text, err := o.registry.LLM().Complete(ctx, prompt)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}
	md, err := parseMetadata(text)
	if err != nil {
		return Recoverable(FailureCapability, err)
	}

	category, err := post.ParseCategory(md.Category)
	if err != nil {
		return Fatal(FailureValidation, err)
	}
	if len(md.Tags) < o.cfg.MinTags || len(md.Tags) > o.cfg.MaxTags {
		return Fatal(FailureValidation,
			fmt.Errorf("tag count %d outside [%d,%d]: %v", len(md.Tags), o.cfg.MinTags, o.cfg.MaxTags, md.Tags))
	}

	p.Category = category
	p.Tags = md.Tags
	p.Filename = post.Slugify(p.Title)

	fm := &post.FrontMatter{
		Title:       p.Title,
		Description: p.Description,
		Date:        timeNow(),
		Draft:       true,
		Category:    string(category),
		Tags:        md.Tags,
	}
	if h := p.HeaderImage(); h != nil {
		fm.FeaturedImage = h.FilePath
	}
	p.FrontMatter = fm
	return Success(p)
}

// finalize is pure validation: every section needs a body, the header image
// must exist, metadata must be assembled. No external calls.
func (o *Orchestrator) finalize(ctx context.Context, n note.Note, p *post.Post) StageResult {
	if missing := p.MissingFields(); len(missing) > 0 {
		return Fatal(FailureValidation, fmt.Errorf("incomplete post: %s", strings.Join(missing, ", ")))
	}
	return Success(p)
}
