package pipeline

import (
	"fmt"

	"github.com/fikebr/notes-to-blog/internal/post"
)

// FailureKind classifies why a stage did not succeed.
type FailureKind int

const (
	// FailureValidation marks a structural constraint violation (bad
	// category, count out of range, incomplete artifact).
	FailureValidation FailureKind = iota
	// FailureCapability marks an external call error, timeout, or
	// malformed response.
	FailureCapability
	// FailureUnavailable marks a dependency the registry reports down.
	FailureUnavailable
	// FailureCanceled marks a pipeline stopped by its context.
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureCapability:
		return "capability"
	case FailureUnavailable:
		return "unavailable"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type resultStatus int

const (
	statusSuccess resultStatus = iota
	statusRecoverable
	statusFatal
)

// StageResult is the tagged outcome of one stage attempt. Exactly one of
// the three constructors produces it; the orchestrator drives control flow
// off the status.
type StageResult struct {
	status resultStatus
	Post   *post.Post
	Kind   FailureKind
	Err    error
}

// Success advances the pipeline with the updated artifact.
func Success(p *post.Post) StageResult {
	return StageResult{status: statusSuccess, Post: p}
}

// Recoverable requests a retry of the same stage within the retry budget.
func Recoverable(kind FailureKind, err error) StageResult {
	return StageResult{status: statusRecoverable, Kind: kind, Err: err}
}

// Fatal aborts the pipeline for this note immediately.
func Fatal(kind FailureKind, err error) StageResult {
	return StageResult{status: statusFatal, Kind: kind, Err: err}
}

// StageFailure is the terminal failure record for one note.
type StageFailure struct {
	Stage    string
	Kind     FailureKind
	Err      error
	Attempts int
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed (%s, %d attempt(s)): %v", f.Stage, f.Kind, f.Attempts, f.Err)
}

func (f *StageFailure) Unwrap() error { return f.Err }

// Report is the orchestrator's structured outcome for one note. Post always
// carries whatever partial work accumulated, even on failure.
type Report struct {
	SourcePath string
	Post       *post.Post
	Failure    *StageFailure
}

// Succeeded reports whether the note completed every stage.
func (r Report) Succeeded() bool { return r.Failure == nil }
