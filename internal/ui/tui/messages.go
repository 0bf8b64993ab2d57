package tui

import (
	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/usecase"
)

type stepEventMsg struct {
	ev usecase.StepEvent
}

type checkDoneMsg struct {
	report domain.CheckReport
	err    error
}
