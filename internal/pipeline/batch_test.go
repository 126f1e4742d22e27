package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/fikebr/notes-to-blog/internal/note"
)

func batchNotes() []note.Note {
	return []note.Note{
		{Content: "composting notes with plenty of detail", SourcePath: "inbox/1-compost.txt", Format: note.Plaintext},
		{Content: "POISON marker makes this note's analysis fail", SourcePath: "inbox/2-poison.txt", Format: note.Plaintext},
		{Content: "sourdough notes with plenty of detail", SourcePath: "inbox/3-sourdough.txt", Format: note.Plaintext},
	}
}

// poisonedLLM fails analysis permanently for notes containing POISON.
func poisonedLLM() func(string) (string, error) {
	inner := scriptedLLM("A Fine Title", []string{"First", "Second"}, "home", []string{"a", "b"})
	return func(prompt string) (string, error) {
		if strings.Contains(prompt, "content analyst") && strings.Contains(prompt, "POISON") {
			return "malformed forever", nil
		}
		return inner(prompt)
	}
}

func TestBatchIsolatesFailures(t *testing.T) {
	env := healthyEnv()
	env.llm.handler = poisonedLLM()
	o := newTestOrchestrator(t, env)
	b := NewBatch(o, 1)

	result := b.Run(context.Background(), batchNotes())
	if len(result.Reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(result.Reports))
	}
	if !result.Reports[0].Succeeded() {
		t.Errorf("note 1 should succeed: %v", result.Reports[0].Failure)
	}
	if result.Reports[1].Succeeded() {
		t.Error("note 2 should fail")
	}
	if !result.Reports[2].Succeeded() {
		t.Errorf("note 3 should succeed despite note 2 failing: %v", result.Reports[2].Failure)
	}
}

func TestBatchReportsKeepInputOrder(t *testing.T) {
	env := healthyEnv()
	env.llm.handler = poisonedLLM()
	o := newTestOrchestrator(t, env)
	b := NewBatch(o, 3)

	result := b.Run(context.Background(), batchNotes())
	want := []string{"inbox/1-compost.txt", "inbox/2-poison.txt", "inbox/3-sourdough.txt"}
	for i, rep := range result.Reports {
		if rep.SourcePath != want[i] {
			t.Errorf("report %d: got %q, want %q", i, rep.SourcePath, want[i])
		}
	}
}

func TestBatchSummary(t *testing.T) {
	env := healthyEnv()
	env.llm.handler = poisonedLLM()
	o := newTestOrchestrator(t, env)
	b := NewBatch(o, 2)

	summary := b.Run(context.Background(), batchNotes()).Summary()
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("expected 2 succeeded / 1 failed, got %d/%d", summary.Succeeded, summary.Failed)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure line, got %d", len(summary.Failures))
	}
	f := summary.Failures[0]
	if f.SourcePath != "inbox/2-poison.txt" {
		t.Errorf("unexpected failing note: %s", f.SourcePath)
	}
	if f.Stage != "analyze" {
		t.Errorf("expected failure at analyze, got %s", f.Stage)
	}
	if f.Reason == "" {
		t.Error("expected a failure reason")
	}
}

func TestBatchWorkerFloor(t *testing.T) {
	env := healthyEnv()
	o := newTestOrchestrator(t, env)
	b := NewBatch(o, 0)
	if b.workers != 1 {
		t.Errorf("expected worker floor of 1, got %d", b.workers)
	}
}
