package pipeline

// EventType identifies a progress notification.
type EventType int

const (
	EventStageStarted EventType = iota
	EventStageRetried
	EventStageCompleted
	EventStageFailed
	// EventImageSkipped reports a subheading illustration dropped after
	// retry exhaustion; the note still proceeds.
	EventImageSkipped
	EventNoteDone
)

// Event is one progress notification emitted by the orchestrator. Consumers
// (TUI, plain reporter) receive them on the goroutine running the note.
type Event struct {
	SourcePath string
	Stage      string
	Type       EventType
	Attempt    int
	Err        error
}
