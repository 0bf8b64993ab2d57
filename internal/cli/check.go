package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/reportstore"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/ui/tui"
	"github.com/streakerapp/supacheck/internal/usecase"
)

type checkFlags struct {
	format      string
	noSave      bool
	useTUI      bool
	verbose     bool
	maxMS       int
	profileFile string
	table       string
	emailDomain string
	password    string
}

func checkCmd(a *app) *cobra.Command {
	var f checkFlags

	c := &cobra.Command{
		Use:   "check",
		Short: "Sign up a fresh user, sign in, and upsert its profile row",
		Long: "Runs signup, immediate password sign in, profile lookup, profile upsert and\n" +
			"verification against the project. Exits non-zero when any step fails.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context(), cmd, f)
		},
	}

	c.Flags().StringVar(&f.format, "format", "pretty", "Output format: pretty|json")
	c.Flags().BoolVar(&f.noSave, "no-save", false, "Do not save the report under reports/")
	c.Flags().BoolVar(&f.useTUI, "tui", false, "Show live progress in an interactive view")
	c.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show every assertion, not only failed ones")
	c.Flags().IntVar(&f.maxMS, "max-ms", 0, "Warn when a step takes longer than this many milliseconds")
	c.Flags().StringVarP(&f.profileFile, "profile", "p", "", "Profile payload YAML (default from config, built-in row if unset)")
	c.Flags().StringVar(&f.table, "table", "", "Profile table (default from config, profiles)")
	c.Flags().StringVar(&f.emailDomain, "email-domain", "", "Domain of the generated test email")
	c.Flags().StringVar(&f.password, "password", "", "Password of the generated test user")
	return c
}

func (a *app) runCheck(ctx context.Context, cmd *cobra.Command, f checkFlags) error {
	if f.format != "pretty" && f.format != "json" {
		return fmt.Errorf("unsupported format %q (expected pretty|json)", f.format)
	}

	p, err := a.loadProject()
	if err != nil {
		return err
	}
	cfg := p.cfg
	if v := strings.TrimSpace(f.profileFile); v != "" {
		cfg.Check.ProfileFile = v
	}
	if v := strings.TrimSpace(f.table); v != "" {
		cfg.Check.ProfileTable = v
	}
	if v := strings.TrimSpace(f.emailDomain); v != "" {
		cfg.Check.EmailDomain = v
	}
	if f.password != "" {
		cfg.Check.Password = f.password
	}

	client, err := p.client(false)
	if err != nil {
		return err
	}
	payload, err := p.profiles().LoadProfile(cfg.Check.ProfileFile)
	if err != nil {
		return err
	}

	in := usecase.CheckInput{
		ProjectURL: cfg.Project.URL,
		Check:      cfg.Check,
		Profile:    payload,
	}
	if f.maxMS > 0 {
		in.MaxLatencyMS = &f.maxMS
	}

	auth, rest := supabase.NewAuth(client), supabase.NewRest(client)
	run := func(ctx context.Context, progress func(usecase.StepEvent)) (domain.CheckReport, error) {
		uc := usecase.NewRunCheck(auth, rest,
			usecase.WithLogger(logger.L()),
			usecase.WithProgress(progress),
		)
		return uc.Execute(ctx, in)
	}

	var report domain.CheckReport
	switch {
	case f.useTUI:
		report, err = tui.Run(ctx, tui.Deps{
			Check:      run,
			ProjectURL: cfg.Project.URL,
			Logger:     logger.L(),
			Debug:      a.debug,
		})
		if err == nil && f.format == "json" {
			err = writeReportJSON(cmd.OutOrStdout(), report, cfg.Output.Masking)
		}
	case f.format == "json":
		report, err = run(ctx, nil)
		if err == nil {
			err = writeReportJSON(cmd.OutOrStdout(), report, cfg.Output.Masking)
		}
	default:
		report, err = run(ctx, a.printProgress(cmd.OutOrStdout(), cfg.Project.URL, f.verbose))
		if err == nil {
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderSummary(a.theme, report))
		}
	}
	if err != nil {
		return err
	}

	if cfg.Output.Save && !f.noSave {
		id, saveErr := p.reports().SaveReport(report)
		if saveErr != nil {
			return saveErr
		}
		if f.format == "pretty" {
			fmt.Fprintf(cmd.OutOrStdout(), "  report: %s\n", id)
		}
	}

	if n := report.Failures(); n > 0 {
		return fmt.Errorf("check failed (%d failed step(s))", n)
	}
	return nil
}

// printProgress renders each step as soon as it finishes.
func (a *app) printProgress(w io.Writer, projectURL string, verbose bool) func(usecase.StepEvent) {
	header := false
	idx := 0
	return func(ev usecase.StepEvent) {
		if !header {
			fmt.Fprint(w, tui.RenderHeader(a.theme, projectURL, ev.Email))
			header = true
		}
		if !ev.Done {
			return
		}
		fmt.Fprint(w, tui.RenderStep(a.theme, idx, ev.Result, verbose))
		idx++
	}
}

func writeReportJSON(w io.Writer, report domain.CheckReport, masking bool) error {
	b, err := reportstore.Encode(report, masking)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
