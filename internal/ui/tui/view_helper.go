package tui

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/streakerapp/supacheck/internal/domain"
)

const bodyPreviewLen = 600

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func prettyBody(body []byte) string {
	if len(body) == 0 {
		return "(empty)"
	}
	var js any
	if err := json.Unmarshal(body, &js); err == nil {
		b, _ := json.MarshalIndent(js, "", "  ")
		return string(b)
	}
	return string(bytes.TrimSpace(body))
}

// RenderStep renders one step line plus its details.
func RenderStep(t Theme, idx int, r domain.StepResult, verbose bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %d. %s", t.Badge(r.Status), idx+1, r.Step.Title())
	if r.StatusCode > 0 {
		fmt.Fprintf(&b, "  %s", t.Subtitle.Render(fmt.Sprintf("HTTP %d · %dms", r.StatusCode, r.LatencyMS)))
	}
	b.WriteString("\n")

	if r.Summary != "" {
		b.WriteString("      ")
		b.WriteString(r.Summary)
		b.WriteString("\n")
	}
	for _, d := range r.Details {
		fmt.Fprintf(&b, "      %s: %s\n", d.Key, d.Value)
	}
	if r.Diagnosis.Code != domain.DiagNone {
		fmt.Fprintf(&b, "      %s %s\n", t.Warn.Render("diagnosis:"), r.Diagnosis.Code)
		if r.Diagnosis.Hint != "" {
			fmt.Fprintf(&b, "      %s %s\n", t.Help.Render("hint:"), r.Diagnosis.Hint)
		}
	}
	if r.Error != nil {
		fmt.Fprintf(&b, "      %s %s (%s)\n", t.Fail.Render("error:"), r.Error.Message, r.Error.Kind)
	}

	if verbose || r.Status == domain.StatusFail {
		for _, a := range r.Assertions {
			if !a.Passed || verbose {
				mark := "ok"
				if !a.Passed {
					mark = "x"
				}
				fmt.Fprintf(&b, "      [%s] %s\n", mark, a.Message)
			}
		}
	}
	if r.Status == domain.StatusFail && len(r.Body) > 0 {
		body := clampString(prettyBody(r.Body), bodyPreviewLen)
		for _, line := range strings.Split(body, "\n") {
			b.WriteString("      │ ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderReport renders a finished check as a header, the steps and a verdict summary.
func RenderReport(t Theme, r domain.CheckReport, verbose bool) string {
	var b strings.Builder

	b.WriteString(RenderHeader(t, r.ProjectURL, r.TestEmail))
	for i, s := range r.Steps {
		b.WriteString(RenderStep(t, i, s, verbose))
	}
	b.WriteString(RenderSummary(t, r))

	return b.String()
}

// RenderHeader is printed before the first step.
func RenderHeader(t Theme, projectURL, email string) string {
	var b strings.Builder
	b.WriteString(t.Title.Render("Supabase signup check"))
	b.WriteString("\n")
	b.WriteString(t.Subtitle.Render(fmt.Sprintf("%s · %s", projectURL, email)))
	b.WriteString("\n\n")
	return b.String()
}

// RenderSummary lists the two verdicts and the run totals.
func RenderSummary(t Theme, r domain.CheckReport) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(t.Title.Render("Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  email confirmation disabled: %s\n", verdict(t, r.EmailConfirmationDisabled))
	fmt.Fprintf(&b, "  profile columns accepted:    %s\n", verdict(t, r.ProfileColumnsAccepted))
	fmt.Fprintf(&b, "  failures: %d · duration: %dms\n", r.Failures(), r.Duration().Milliseconds())
	return b.String()
}

func verdict(t Theme, v *bool) string {
	switch {
	case v == nil:
		return t.Skipped.Render("unknown")
	case *v:
		return t.Pass.Render("yes")
	default:
		return t.Fail.Render("no")
	}
}
