package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/usecase"
)

func settingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Read the project's auth settings and flag what blocks the check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProject()
			if err != nil {
				return err
			}
			client, err := p.client(false)
			if err != nil {
				return err
			}

			s, err := usecase.NewReadAuthSettings(supabase.NewAuth(client), logger.L()).Execute(cmd.Context())
			if err != nil {
				return err
			}

			printSettings(cmd, a, s)
			if n := s.Failures(); n > 0 {
				return fmt.Errorf("auth settings: %d problem(s)", n)
			}
			return nil
		},
	}
}

func printSettings(cmd *cobra.Command, a *app, s domain.AuthSettings) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, a.theme.Title.Render("Auth settings"))
	if s.Error != nil {
		fmt.Fprintf(w, "  %s %s (%s)\n", a.theme.Fail.Render("error:"), s.Error.Message, s.Error.Kind)
		return
	}
	fmt.Fprintf(w, "  status: %d · %dms\n", s.StatusCode, s.LatencyMS)
	if len(s.Providers) > 0 {
		fmt.Fprintf(w, "  providers: %s\n", strings.Join(s.Providers, ", "))
	}
	for _, f := range s.Findings {
		fmt.Fprintf(w, "%s %s: %s\n", a.theme.Badge(f.Status), f.Name, f.Message)
		if f.Diagnosis.Hint != "" {
			fmt.Fprintf(w, "  %s %s\n", a.theme.Help.Render("hint:"), f.Diagnosis.Hint)
		}
	}
}
