// Package tui renders a running build in the terminal with bubbletea.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshInterval = 100 * time.Millisecond
	maxBarWidth     = 60
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	factStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("109")).PaddingLeft(2)
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Source is the build being rendered.
type Source interface {
	Snapshot() build.Snapshot
	Cancel() bool
}

type snapshotMsg build.Snapshot

// Model is the bubbletea model of the build progress view.
type Model struct {
	source  Source
	company string
	spinner spinner.Model
	bar     progress.Model

	snap   build.Snapshot
	closed bool
}

// NewModel creates the progress view for source.
func NewModel(source Source, company string) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle
	return Model{
		source:  source,
		company: company,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		snap:    source.Snapshot(),
	}
}

func (m Model) poll() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return snapshotMsg(m.source.Snapshot())
	})
}

// Init starts the spinner and the snapshot refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

// Update handles key presses, refreshes and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.source.Cancel()
			m.closed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, maxBarWidth)
	case snapshotMsg:
		m.snap = build.Snapshot(msg)
		if m.Finished() {
			return m, tea.Quit
		}
		return m, m.poll()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Finished reports whether the build reached a terminal state.
func (m Model) Finished() bool {
	return m.snap.State == build.StateDone || m.snap.State == build.StateCancelled
}

// Closed reports whether the user closed the view before the build ended.
func (m Model) Closed() bool {
	return m.closed
}

// Snapshot returns the last rendered snapshot.
func (m Model) Snapshot() build.Snapshot {
	return m.snap
}

// View renders the progress view.
func (m Model) View() string {
	var b strings.Builder

	company := m.company
	if company == "" {
		company = "your business"
	}
	b.WriteString(titleStyle.Render("Building your AI agent for " + company))
	b.WriteString("\n\n")

	switch {
	case m.closed:
		b.WriteString(warnStyle.Render("Build closed."))
	case m.snap.State == build.StateDone && m.snap.Result != nil && m.snap.Result.Found:
		b.WriteString(doneStyle.Render("Your agent is ready."))
	case m.snap.State == build.StateDone:
		b.WriteString(warnStyle.Render("Your agent is still being prepared."))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(statusStyle.Render(statusLine(m.snap)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.snap.Progress))
	b.WriteString("\n\n")

	if m.snap.Fact != "" && !m.Finished() {
		b.WriteString(factStyle.Render(m.snap.Fact))
		b.WriteString("\n\n")
	}
	if !m.Finished() && !m.closed {
		b.WriteString(helpStyle.Render("q: close"))
		b.WriteString("\n")
	}
	return b.String()
}

func statusLine(s build.Snapshot) string {
	switch {
	case s.State == build.StateCompleting:
		return "Finishing up..."
	case s.Found:
		return "Agent record found, wrapping up..."
	case s.Attempts > 0:
		return fmt.Sprintf("Analyzing your business (checked %d times)", s.Attempts)
	default:
		return "Analyzing your business..."
	}
}

// Run renders source until the build ends, the user closes the view or ctx
// is cancelled. It returns the final model.
func Run(ctx context.Context, source Source, company string, in io.Reader, out io.Writer) (Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	final, err := tea.NewProgram(NewModel(source, company), opts...).Run()
	if err != nil {
		return Model{}, fmt.Errorf("run progress view: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected model type %T", final)
	}
	return m, nil
}
