package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/innoexec/config"
	"github.com/wippyai/innoexec/installer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type stageMsg struct {
	label string
}

type transitionMsg struct {
	t installer.Transition
}

type finishedMsg struct {
	err error
}

type progressModel struct {
	err      error
	cancel   context.CancelFunc
	title    string
	current  string
	done     []string
	spinner  spinner.Model
	finished bool
}

func newProgressModel(title string, cancel context.CancelFunc) *progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = stepStyle
	return &progressModel{
		title:   title,
		cancel:  cancel,
		spinner: s,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) complete() {
	if m.current != "" {
		m.done = append(m.done, m.current)
		m.current = ""
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (m.finished && msg.String() == "q") {
			if m.cancel != nil {
				m.cancel()
			}
			if m.finished {
				return m, tea.Quit
			}
		}

	case stageMsg:
		m.complete()
		m.current = msg.label

	case transitionMsg:
		switch msg.t.To {
		case installer.StateProcedureInvoked:
			m.complete()
			m.done = append(m.done, "signalled "+msg.t.Step.String())
		case installer.StateContextCompiled:
			m.complete()
			m.done = append(m.done, "compiled execution context")
		}

	case finishedMsg:
		m.finished = true
		m.err = msg.err
		if msg.err == nil {
			m.complete()
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("inno-cli"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")

	for _, d := range m.done {
		b.WriteString(doneStyle.Render("✓ " + d))
		b.WriteString("\n")
	}
	if m.current != "" {
		if m.err != nil {
			b.WriteString(errorStyle.Render("✗ " + m.current))
		} else {
			b.WriteString(m.spinner.View() + " " + m.current)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.finished:
		b.WriteString(doneStyle.Render("Install script completed."))
		b.WriteString("\n")
	default:
		b.WriteString(helpStyle.Render("ctrl+c cancel"))
	}
	return b.String()
}

// teaReporter forwards progress to a running program.
type teaReporter struct {
	p *tea.Program
}

func (r *teaReporter) Stage(label string) {
	r.p.Send(stageMsg{label: label})
}

func (r *teaReporter) Transition(t installer.Transition) {
	r.p.Send(transitionMsg{t: t})
}

func (r *teaReporter) Output() io.Writer { return io.Discard }

func runWithProgress(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newProgressModel(cfg.InstallerPath, cancel)
	p := tea.NewProgram(model)

	errc := make(chan error, 1)
	go func() {
		err := run(ctx, cfg, &teaReporter{p: p})
		errc <- err
		p.Send(finishedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress view: %w", err)
	}
	return <-errc
}
