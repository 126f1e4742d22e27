// Package tui shows live batch progress: one row per note, the stage it is
// on, and a final summary.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fikebr/notes-to-blog/internal/pipeline"
)

type noteState int

const (
	statePending noteState = iota
	stateRunning
	stateDone
	stateFailed
)

type row struct {
	path    string
	state   noteState
	stage   string
	attempt int
	err     error
}

type eventMsg struct {
	event pipeline.Event
	ok    bool
}

type resultMsg struct {
	result pipeline.BatchResult
}

// RunOpts wires a running batch into the TUI. Events must be closed when
// the batch finishes; Result then yields the final outcome. Cancel stops
// the batch at the next stage boundary.
type RunOpts struct {
	NotePaths []string
	Events    <-chan pipeline.Event
	Result    <-chan pipeline.BatchResult
	Cancel    func()
}

type Model struct {
	rows    []row
	index   map[string]int
	spinner spinner.Model
	opts    RunOpts

	width     int
	done      bool
	canceling bool
	summary   *pipeline.Summary
}

func NewModel(opts RunOpts) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stageStyle

	rows := make([]row, len(opts.NotePaths))
	index := make(map[string]int, len(opts.NotePaths))
	for i, p := range opts.NotePaths {
		rows[i] = row{path: p}
		index[p] = i
	}
	return Model{rows: rows, index: index, spinner: sp, opts: opts}
}

// Run blocks until the batch completes and the user dismisses the summary.
func Run(opts RunOpts) error {
	_, err := tea.NewProgram(NewModel(opts)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.opts.Events
		return eventMsg{event: ev, ok: ok}
	}
}

func (m Model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return resultMsg{result: <-m.opts.Result}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.canceling && m.opts.Cancel != nil {
				m.canceling = true
				m.opts.Cancel()
			}
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		if !msg.ok {
			// Channel closed: the batch is finished.
			return m, m.waitForResult()
		}
		m.apply(msg.event)
		return m, m.waitForEvent()

	case resultMsg:
		m.done = true
		s := msg.result.Summary()
		m.summary = &s
		return m, nil
	}
	return m, nil
}

func (m *Model) apply(ev pipeline.Event) {
	i, ok := m.index[ev.SourcePath]
	if !ok {
		return
	}
	r := &m.rows[i]
	switch ev.Type {
	case pipeline.EventStageStarted, pipeline.EventStageRetried:
		r.state = stateRunning
		r.stage = ev.Stage
		r.attempt = ev.Attempt
	case pipeline.EventStageCompleted:
		r.stage = ev.Stage
	case pipeline.EventNoteDone:
		if ev.Err != nil {
			r.state = stateFailed
			r.err = ev.Err
		} else {
			r.state = stateDone
		}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("notes2blog"))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		b.WriteString(" ")
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if m.done && m.summary != nil {
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderSummary() string {
	s := m.summary
	var b strings.Builder
	b.WriteString(fmt.Sprintf(" %s %d published", okStyle.Render("✓"), s.Succeeded))
	if s.Failed > 0 {
		b.WriteString(fmt.Sprintf("  %s %d failed", errStyle.Render("✗"), s.Failed))
	}
	b.WriteString("\n")
	for _, f := range s.Failures {
		line := fmt.Sprintf("   %s: %s: %s", filepath.Base(f.SourcePath), f.Stage, f.Reason)
		b.WriteString(dimStyle.Render(shorten(line, 100)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(r row) string {
	name := filepath.Base(r.path)
	switch r.state {
	case stateDone:
		return okStyle.Render("✓") + " " + name
	case stateFailed:
		return errStyle.Render("✗") + " " + name + " " + dimStyle.Render(shorten(r.err.Error(), 60))
	case stateRunning:
		label := r.stage
		if r.attempt > 1 {
			label = fmt.Sprintf("%s (attempt %d)", r.stage, r.attempt)
		}
		return m.spinner.View() + " " + name + " " + stageStyle.Render(label)
	default:
		return dimStyle.Render("·") + " " + dimStyle.Render(name)
	}
}

func (m Model) renderStatusBar() string {
	done, failed := 0, 0
	for _, r := range m.rows {
		switch r.state {
		case stateDone:
			done++
		case stateFailed:
			failed++
		}
	}

	left := fmt.Sprintf(" %d/%d notes", done+failed, len(m.rows))
	if failed > 0 {
		left += fmt.Sprintf(" · %d failed", failed)
	}

	right := " q cancel "
	switch {
	case m.done:
		right = " q quit "
	case m.canceling:
		left += " (canceling...)"
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
