package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/streakerapp/supacheck/internal/domain"
)

type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	Card     lipgloss.Style

	Pass    lipgloss.Style
	Warn    lipgloss.Style
	Fail    lipgloss.Style
	Skipped lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Subtitle: lipgloss.NewStyle().Faint(true),
		Help:     lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),

		Pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Skipped: lipgloss.NewStyle().Faint(true),
	}
}

// PlainTheme renders without colors or borders (non-terminal output).
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Title: s, Subtitle: s, Help: s, Card: s,
		Pass: s, Warn: s, Fail: s, Skipped: s,
	}
}

// Badge renders a fixed-width status label.
func (t Theme) Badge(s domain.StepStatus) string {
	switch s {
	case domain.StatusPass:
		return t.Pass.Render("PASS")
	case domain.StatusWarn:
		return t.Warn.Render("WARN")
	case domain.StatusFail:
		return t.Fail.Render("FAIL")
	default:
		return t.Skipped.Render("SKIP")
	}
}
