package pipeline

import (
	"context"
	"sync"

	"github.com/fikebr/notes-to-blog/internal/note"
)

// Batch runs the orchestrator over a set of notes with a bounded worker
// pool. Notes are independent; one note's fatal outcome never stops the
// rest. The shared registry and research cache are concurrency-safe, and
// artifacts are never shared across notes.
type Batch struct {
	orch    *Orchestrator
	workers int
}

func NewBatch(orch *Orchestrator, workers int) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{orch: orch, workers: workers}
}

// BatchResult holds per-note reports in input order.
type BatchResult struct {
	Reports []Report
}

// Summary aggregates a batch outcome.
type Summary struct {
	Succeeded int
	Failed    int
	Failures  []FailureLine
}

// FailureLine is one failed note: which stage died and why.
type FailureLine struct {
	SourcePath string
	Stage      string
	Reason     string
}

// Run processes every note and collects the reports in input order.
func (b *Batch) Run(ctx context.Context, notes []note.Note) BatchResult {
	reports := make([]Report, len(notes))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reports[i] = b.orch.Run(ctx, notes[i])
			}
		}()
	}

	for i := range notes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return BatchResult{Reports: reports}
}

func (r BatchResult) Summary() Summary {
	var s Summary
	for _, rep := range r.Reports {
		if rep.Succeeded() {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, FailureLine{
			SourcePath: rep.SourcePath,
			Stage:      rep.Failure.Stage,
			Reason:     rep.Failure.Err.Error(),
		})
	}
	return s
}
