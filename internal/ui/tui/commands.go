package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/streakerapp/supacheck/internal/usecase"
)

// listen waits for the next message from the running check.
func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return checkDoneMsg{err: errors.New("check channel closed")}
		}
		return msg
	}
}

// startCheckAsync runs the check in a goroutine. Step events and the final
// result arrive on the returned channel in order.
func startCheckAsync(ctx context.Context, deps Deps) (<-chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 16)

	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	go func() {
		defer close(ch)

		if deps.Check == nil {
			ch <- checkDoneMsg{err: errors.New("no check configured")}
			return
		}

		log.Info("tui.check.start", "project", deps.ProjectURL, "debug", deps.Debug)

		report, err := deps.Check(ctx, func(ev usecase.StepEvent) {
			select {
			case ch <- stepEventMsg{ev: ev}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			log.Error("tui.check.failed", "err", err)
		} else {
			log.Info("tui.check.done", "failures", report.Failures())
		}

		ch <- checkDoneMsg{report: report, err: err}
	}()

	return ch, listen(ch)
}
