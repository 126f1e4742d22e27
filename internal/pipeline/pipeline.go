// Package pipeline drives the fixed stage sequence that turns a raw note
// into a completed blog-post artifact. Stages run one after another; each
// may succeed, ask for a retry, or kill the note. The orchestrator owns the
// retry budget and escalation policy so the stages stay simple.
package pipeline

import (
	"context"
	"time"

	"github.com/fikebr/notes-to-blog/internal/cache"
	"github.com/fikebr/notes-to-blog/internal/config"
	"github.com/fikebr/notes-to-blog/internal/note"
	"github.com/fikebr/notes-to-blog/internal/post"
	"github.com/fikebr/notes-to-blog/internal/service"
)

// ImageStore persists generated image payloads. The pipeline never touches
// the filesystem directly; it only records the path the store returns.
type ImageStore interface {
	Save(slug, name string, data []byte) (string, error)
}

// StageConfig is the orchestrator's tuning surface, supplied at
// construction time. The orchestrator never reads files or environment.
type StageConfig struct {
	MaxRetriesPerStage int
	StageTimeout       time.Duration
	MinSubheadings     int
	MaxSubheadings     int
	MinTags            int
	MaxTags            int
	SearchMaxResults   int
	ImageWidth         int
	ImageHeight        int
	// RetryBackoff is the base delay between stage retries, doubling
	// per attempt.
	RetryBackoff time.Duration
}

// ConfigFrom derives a StageConfig from the application config.
func ConfigFrom(cfg *config.Config) StageConfig {
	return StageConfig{
		MaxRetriesPerStage: cfg.Pipeline.MaxRetriesPerStage,
		StageTimeout:       cfg.StageTimeout(),
		MinSubheadings:     cfg.Pipeline.MinSubheadings,
		MaxSubheadings:     cfg.Pipeline.MaxSubheadings,
		MinTags:            cfg.Pipeline.MinTags,
		MaxTags:            cfg.Pipeline.MaxTags,
		SearchMaxResults:   cfg.Search.MaxResults,
		ImageWidth:         cfg.Image.Width,
		ImageHeight:        cfg.Image.Height,
		RetryBackoff:       500 * time.Millisecond,
	}
}

// StageFunc is one workflow stage: artifact in, result out. Stages receive
// a clone of the artifact, so a failed attempt leaves no trace.
type StageFunc func(ctx context.Context, n note.Note, p *post.Post) StageResult

// Stage pairs a name with its function; the orchestrator loops the list
// generically instead of hand-chaining stages.
type Stage struct {
	Name string
	Run  StageFunc
}

// Orchestrator executes the fixed stage list over one note at a time.
// Safe for concurrent Run calls: all mutable state lives in the artifact.
type Orchestrator struct {
	registry *service.Registry
	cache    *cache.Cache
	images   ImageStore
	cfg      StageConfig
	events   func(Event)
	stages   []Stage
}

// New wires an orchestrator with explicit dependencies. events may be nil.
func New(registry *service.Registry, researchCache *cache.Cache, images ImageStore, cfg StageConfig, events func(Event)) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		cache:    researchCache,
		images:   images,
		cfg:      cfg,
		events:   events,
	}
	o.stages = []Stage{
		{Name: "analyze", Run: o.analyze},
		{Name: "outline_validate", Run: o.outlineValidate},
		{Name: "research", Run: o.research},
		{Name: "write_intro_conclusion", Run: o.writeIntroConclusion},
		{Name: "write_subheadings", Run: o.writeSubheadings},
		{Name: "illustrate", Run: o.illustrate},
		{Name: "select_metadata", Run: o.selectMetadata},
		{Name: "finalize", Run: o.finalize},
	}
	return o
}

// StageNames returns the fixed stage sequence in execution order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name
	}
	return names
}

// Run processes one note through every stage. It never panics or returns a
// bare error: the Report carries success or the failing stage plus whatever
// partial artifact accumulated. Cancellation is honored between stages
// only; an in-flight capability call runs to completion or times out first.
func (o *Orchestrator) Run(ctx context.Context, n note.Note) Report {
	p := &post.Post{SourcePath: n.SourcePath}

	for _, st := range o.stages {
		if err := ctx.Err(); err != nil {
			return o.fail(n, p, &StageFailure{Stage: st.Name, Kind: FailureCanceled, Err: err, Attempts: 0})
		}

		next, failure := o.runStage(ctx, st, n, p)
		if failure != nil {
			return o.fail(n, p, failure)
		}
		p = next
	}

	o.emit(Event{SourcePath: n.SourcePath, Type: EventNoteDone})
	return Report{SourcePath: n.SourcePath, Post: p}
}

// runStage applies the retry policy to one stage: Recoverable results are
// retried with doubling backoff up to the budget, then escalated to Fatal.
func (o *Orchestrator) runStage(ctx context.Context, st Stage, n note.Note, p *post.Post) (*post.Post, *StageFailure) {
	attempts := 0
	for attempt := 0; attempt <= o.cfg.MaxRetriesPerStage; attempt++ {
		attempts++
		if attempt == 0 {
			o.emit(Event{SourcePath: n.SourcePath, Stage: st.Name, Type: EventStageStarted, Attempt: attempts})
		} else {
			o.emit(Event{SourcePath: n.SourcePath, Stage: st.Name, Type: EventStageRetried, Attempt: attempts})
		}

		res := o.attempt(ctx, st, n, p)
		switch res.status {
		case statusSuccess:
			o.emit(Event{SourcePath: n.SourcePath, Stage: st.Name, Type: EventStageCompleted, Attempt: attempts})
			return res.Post, nil
		case statusFatal:
			f := &StageFailure{Stage: st.Name, Kind: res.Kind, Err: res.Err, Attempts: attempts}
			o.emit(Event{SourcePath: n.SourcePath, Stage: st.Name, Type: EventStageFailed, Attempt: attempts, Err: res.Err})
			return nil, f
		case statusRecoverable:
			if attempt == o.cfg.MaxRetriesPerStage {
				f := &StageFailure{Stage: st.Name, Kind: res.Kind, Err: res.Err, Attempts: attempts}
				o.emit(Event{SourcePath: n.SourcePath, Stage: st.Name, Type: EventStageFailed, Attempt: attempts, Err: res.Err})
				return nil, f
			}
			if err := o.backoff(ctx, attempt); err != nil {
				f := &StageFailure{Stage: st.Name, Kind: FailureCanceled, Err: err, Attempts: attempts}
				return nil, f
			}
		}
	}
	// Unreachable: the loop always returns.
	return nil, &StageFailure{Stage: st.Name, Kind: FailureCapability, Attempts: attempts}
}

// attempt runs one stage invocation against a clone of the artifact under
// the per-stage timeout.
func (o *Orchestrator) attempt(ctx context.Context, st Stage, n note.Note, p *post.Post) StageResult {
	sctx := ctx
	if o.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, o.cfg.StageTimeout)
		defer cancel()
	}
	return st.Run(sctx, n, p.Clone())
}

func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	base := o.cfg.RetryBackoff
	if base <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(base << uint(attempt)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) fail(n note.Note, p *post.Post, f *StageFailure) Report {
	o.emit(Event{SourcePath: n.SourcePath, Type: EventNoteDone, Err: f})
	return Report{SourcePath: n.SourcePath, Post: p, Failure: f}
}

func (o *Orchestrator) emit(e Event) {
	if o.events != nil {
		o.events(e)
	}
}
