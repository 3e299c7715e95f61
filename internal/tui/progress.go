// Package tui renders an interactive progress view for sort runs: a
// progress bar fed by the engine's progress callback and a scrolling pane
// for its log messages. Events arrive through a single channel, so the
// strictly increasing order of progress updates is preserved on screen.
package tui

import (
	"fmt"
	"strings"

	"dateisort/pkg/types"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Number of recent log lines kept on screen.
const logWindow = 8

// ProgressMsg carries the running total of accounted files.
type ProgressMsg int

// LogMsg carries one log line from the engine.
type LogMsg string

// DoneMsg ends the run, carrying the final result or a fatal error.
type DoneMsg struct {
	Result types.SortResult
	Err    error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	logStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// Model is the bubbletea model for one sort run.
type Model struct {
	progress progress.Model
	total    int
	done     int
	logLines []string
	result   *types.SortResult
	err      error
	cancel   func()
	quitting bool
}

// NewModel creates a progress model for a run over total files. cancel is
// invoked when the user aborts; it may be nil.
func NewModel(total int, cancel func()) Model {
	return Model{
		progress: progress.New(progress.WithDefaultGradient()),
		total:    total,
		cancel:   cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if m.cancel != nil {
				// The engine notices between files and sends DoneMsg
				// with the partial result.
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.progress.Width = width
		}
		return m, nil

	case ProgressMsg:
		m.done = int(msg)
		if m.total == 0 {
			return m, nil
		}
		return m, m.progress.SetPercent(float64(m.done) / float64(m.total))

	case LogMsg:
		m.logLines = append(m.logLines, string(msg))
		if len(m.logLines) > logWindow {
			m.logLines = m.logLines[len(m.logLines)-logWindow:]
		}
		return m, nil

	case DoneMsg:
		m.result = &msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("dateisort"))
	sb.WriteString("\n\n")
	sb.WriteString(m.progress.View())
	sb.WriteString("\n")
	sb.WriteString(counterStyle.Render(fmt.Sprintf("%d / %d files", m.done, m.total)))
	sb.WriteString("\n\n")

	for _, line := range m.logLines {
		sb.WriteString(logStyle.Render(line))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(fmt.Sprintf("aborted: %v", m.err)))
		sb.WriteString("\n")
	case m.result != nil:
		sb.WriteString("\n")
		sb.WriteString(summaryStyle.Render(m.result.String()))
		sb.WriteString("\n")
	case m.quitting:
		sb.WriteString("\n")
		sb.WriteString(logStyle.Render("stopping after the current file..."))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Result returns the final result once the program has finished.
func (m Model) Result() (types.SortResult, error) {
	if m.result == nil {
		return types.SortResult{}, m.err
	}
	return *m.result, m.err
}

// Run drives the progress view until a DoneMsg arrives on events. It returns
// the final sort result. The caller owns the events channel and must close
// the run with exactly one DoneMsg.
func Run(total int, events <-chan tea.Msg, cancel func()) (types.SortResult, error) {
	p := tea.NewProgram(NewModel(total, cancel))

	go func() {
		for msg := range events {
			p.Send(msg)
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return types.SortResult{}, err
	}
	m, ok := finalModel.(Model)
	if !ok {
		return types.SortResult{}, fmt.Errorf("unexpected model type %T", finalModel)
	}
	return m.Result()
}
