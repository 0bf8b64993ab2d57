// Package tui renders check progress and results in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/streakerapp/supacheck/internal/domain"
)

type phase int

const (
	phaseRunning phase = iota
	phaseDone
)

type model struct {
	theme Theme
	deps  Deps

	cancel context.CancelFunc
	events <-chan tea.Msg
	listen tea.Cmd

	phase   phase
	spin    spinner.Model
	current domain.StepName
	results []domain.StepResult

	cursor  int
	verbose bool

	report domain.CheckReport
	err    error
	toast  string
}

// Run shows live progress for one check and returns its report once the
// user leaves the screen.
func Run(ctx context.Context, deps Deps) (domain.CheckReport, error) {
	m := newModel(ctx, deps)
	p := tea.NewProgram(wrapSafe(m, deps.Logger))
	final, err := p.Run()
	m.cancel()
	if err != nil {
		return domain.CheckReport{}, err
	}

	if sm, ok := final.(safeModel); ok {
		return sm.m.report, sm.m.err
	}
	return domain.CheckReport{}, fmt.Errorf("unexpected final model %T", final)
}

func newModel(ctx context.Context, deps Deps) model {
	cctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		theme:  DefaultTheme(),
		deps:   deps,
		cancel: cancel,
		phase:  phaseRunning,
		spin:   sp,
	}
	m.events, m.listen = startCheckAsync(cctx, deps)
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.listen)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepEventMsg:
		if msg.ev.Done {
			m.results = append(m.results, msg.ev.Result)
			m.current = ""
		} else {
			m.current = msg.ev.Step
		}
		return m, listen(m.events)

	case checkDoneMsg:
		m.phase = phaseDone
		m.report = msg.report
		m.err = msg.err
		if msg.err == nil {
			m.results = msg.report.Steps
		}
		if len(m.results) > 0 {
			m.cursor = firstProblem(m.results)
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			if m.phase == phaseDone {
				return m, tea.Quit
			}
			m.toast = "Canceling…"
			return m, nil
		case "q", "esc":
			if m.phase == phaseDone {
				return m, tea.Quit
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
		case "v":
			m.verbose = !m.verbose
		}
	}
	return m, nil
}

// firstProblem selects the first failed or warned step so its details are open.
func firstProblem(rs []domain.StepResult) int {
	for i, r := range rs {
		if r.Status == domain.StatusFail {
			return i
		}
	}
	for i, r := range rs {
		if r.Status == domain.StatusWarn {
			return i
		}
	}
	return 0
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("supacheck"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(m.deps.ProjectURL))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.theme.Card.Render(m.theme.Fail.Render("✗ ") + UserMessage(m.err)))
		b.WriteString("\n")
		b.WriteString(m.theme.Help.Render("q quit"))
		return wrap.Render(b.String())
	}

	var steps strings.Builder
	for i, r := range m.results {
		if m.phase == phaseDone && i == m.cursor {
			steps.WriteString(RenderStep(m.theme, i, r, m.verbose))
			continue
		}
		line := fmt.Sprintf("%s  %d. %s", m.theme.Badge(r.Status), i+1, r.Step.Title())
		if r.Summary != "" {
			line += "  " + m.theme.Subtitle.Render(clampString(r.Summary, 60))
		}
		steps.WriteString(line)
		steps.WriteString("\n")
	}
	if m.phase == phaseRunning && m.current != "" {
		fmt.Fprintf(&steps, "%s %d. %s\n", m.spin.View(), len(m.results)+1, m.current.Title())
	}
	b.WriteString(m.theme.Card.Render(strings.TrimRight(steps.String(), "\n")))
	b.WriteString("\n")

	switch m.phase {
	case phaseRunning:
		help := "ctrl+c cancel"
		if m.toast != "" {
			help = m.toast
		}
		b.WriteString(m.theme.Help.Render(help))
	case phaseDone:
		b.WriteString(fmt.Sprintf("email confirmation disabled: %s · profile columns accepted: %s · failures: %d\n",
			verdict(m.theme, m.report.EmailConfirmationDisabled),
			verdict(m.theme, m.report.ProfileColumnsAccepted),
			m.report.Failures(),
		))
		b.WriteString(m.theme.Help.Render("↑/↓ select step • v verbose • q quit"))
	}

	return wrap.Render(b.String())
}
