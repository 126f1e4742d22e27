package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fikebr/notes-to-blog/internal/cache"
	"github.com/fikebr/notes-to-blog/internal/config"
	"github.com/fikebr/notes-to-blog/internal/note"
	"github.com/fikebr/notes-to-blog/internal/pipeline"
	"github.com/fikebr/notes-to-blog/internal/render"
	"github.com/fikebr/notes-to-blog/internal/service"
	"github.com/fikebr/notes-to-blog/internal/tui"
)

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	notes, err := gatherNotes(cfg, args)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("No notes to process.")
		return nil
	}

	if flagDryRun {
		fmt.Printf("Would process %d note(s):\n", len(notes))
		for _, n := range notes {
			fmt.Printf("  %s\n", n.SourcePath)
		}
		return nil
	}

	db, err := cache.Open(cfg.ResolvedCachePath(), cfg.CacheTTL())
	if err != nil {
		return fmt.Errorf("opening research cache: %w", err)
	}
	defer db.Close()

	llm, err := service.NewOpenAIClient(cfg.LLM, cfg.LLMKey())
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	search, err := service.NewBraveClient(cfg.Search, cfg.SearchKey())
	if err != nil {
		return fmt.Errorf("search client: %w", err)
	}
	image, err := service.NewReplicateClient(cfg.Image, cfg.ImageToken())
	if err != nil {
		return fmt.Errorf("image client: %w", err)
	}
	registry := service.NewRegistry(llm, search, image)

	outputDir := cfg.Paths.OutputDir
	if flagOutput != "" {
		outputDir = flagOutput
	}
	writer := render.NewWriter(outputDir, cfg.Paths.ImagesDir)

	workers := cfg.Workers()
	if flagWorkers > 0 {
		workers = flagWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events := make(chan pipeline.Event, 64)
	orch := pipeline.New(registry, db, writer, pipeline.ConfigFrom(cfg), func(e pipeline.Event) {
		events <- e
	})
	batch := pipeline.NewBatch(orch, workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result pipeline.BatchResult
	results := make(chan pipeline.BatchResult, 1)
	done := make(chan struct{})
	go func() {
		result = batch.Run(ctx, notes)
		results <- result
		close(events)
		close(done)
	}()

	if flagNoTUI {
		reportPlain(events)
	} else {
		paths := make([]string, len(notes))
		for i, n := range notes {
			paths[i] = n.SourcePath
		}
		if err := tui.Run(tui.RunOpts{NotePaths: paths, Events: events, Result: results, Cancel: cancel}); err != nil {
			return fmt.Errorf("progress view: %w", err)
		}
	}
	<-done

	return writeOutputs(writer, result)
}

// gatherNotes loads the notes named on the command line, or the whole inbox
// when no arguments are given. Unreadable inbox files are warnings, not
// errors; an explicitly named file that fails to load is fatal.
func gatherNotes(cfg *config.Config, args []string) ([]note.Note, error) {
	if len(args) > 0 {
		notes := make([]note.Note, 0, len(args))
		for _, path := range args {
			n, err := note.Load(path)
			if err != nil {
				return nil, fmt.Errorf("loading note: %w", err)
			}
			notes = append(notes, n)
		}
		return notes, nil
	}

	notes, warns := note.LoadDir(cfg.Paths.InboxDir)
	for _, w := range warns {
		fmt.Fprintf(os.Stderr, "  [warn] %v\n", w)
	}
	return notes, nil
}

// reportPlain drains the event channel printing one line per milestone.
// It returns when the channel closes.
func reportPlain(events <-chan pipeline.Event) {
	for e := range events {
		name := filepath.Base(e.SourcePath)
		switch e.Type {
		case pipeline.EventStageStarted:
			fmt.Printf("%s: %s\n", name, e.Stage)
		case pipeline.EventStageRetried:
			fmt.Printf("%s: %s (attempt %d)\n", name, e.Stage, e.Attempt)
		case pipeline.EventImageSkipped:
			fmt.Printf("%s: skipped a section image\n", name)
		case pipeline.EventNoteDone:
			if e.Err != nil {
				fmt.Printf("%s: FAILED: %v\n", name, e.Err)
			} else {
				fmt.Printf("%s: done\n", name)
			}
		}
	}
}

// writeOutputs renders every completed post and prints the batch summary.
func writeOutputs(writer *render.Writer, result pipeline.BatchResult) error {
	for _, rep := range result.Reports {
		if !rep.Succeeded() {
			continue
		}
		path, err := writer.Write(rep.Post)
		if err != nil {
			return fmt.Errorf("writing post for %s: %w", rep.SourcePath, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	s := result.Summary()
	fmt.Printf("%d published, %d failed\n", s.Succeeded, s.Failed)
	for _, f := range s.Failures {
		fmt.Printf("  %s: %s: %s\n", filepath.Base(f.SourcePath), f.Stage, f.Reason)
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d note(s) failed", s.Failed)
	}
	return nil
}
