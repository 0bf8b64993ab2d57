package tui

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/streakerapp/supacheck/internal/domain"
)

// safeModel keeps a panic in the view from leaving the terminal in raw mode;
// the check is canceled and the panic is logged instead.
type safeModel struct {
	m   model
	log *slog.Logger
}

func wrapSafe(m model, log *slog.Logger) safeModel {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return safeModel{m: m, log: log}
}

func (s safeModel) Init() tea.Cmd {
	return s.m.Init()
}

func (s safeModel) Update(msg tea.Msg) (tm tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tui.panic",
				"where", "update",
				"phase", int(s.m.phase),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)

			s.m.cancel()
			s.m.phase = phaseDone
			s.m.err = &domain.OpError{
				Op:   "tui.update",
				Kind: domain.KindExecution,
				Err:  fmt.Errorf("%w: %v", domain.ErrExecution, r),
			}
			tm = s
			cmd = nil
		}
	}()

	inner, c := s.m.Update(msg)

	if mm, ok := inner.(model); ok {
		s.m = mm
	} else if sm, ok := inner.(safeModel); ok {
		s = sm
	}

	return s, c
}

func (s safeModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tui.panic",
				"where", "view",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			out = "Unexpected error while drawing the check (see .supacheck/logs/supacheck.log)"
		}
	}()
	return s.m.View()
}

var _ tea.Model = (*safeModel)(nil)
