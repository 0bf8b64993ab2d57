package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/usecase"
)

func clearCmd(a *app) *cobra.Command {
	var yes bool
	var tables []string

	c := &cobra.Command{
		Use:   "clear",
		Short: "Delete every row from the app tables (service role key required)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete data without --yes: %w", domain.ErrNotConfirmed)
			}

			p, err := a.loadProject()
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				tables = p.cfg.Clear.Tables
			}
			client, err := p.client(true)
			if err != nil {
				return err
			}

			uc := usecase.NewClearTables(supabase.NewRest(client), logger.L())
			results, err := uc.Execute(cmd.Context(), tables, yes)
			if err != nil {
				return err
			}

			failed := printClear(cmd, a, results)
			if failed > 0 {
				return fmt.Errorf("clear failed for %d table(s)", failed)
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	c.Flags().StringSliceVar(&tables, "tables", nil, "Tables to clear, in order (default from config)")
	return c
}

func printClear(cmd *cobra.Command, a *app, results []domain.TableClearResult) int {
	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if !r.Cleared {
			failed++
			msg := r.Message
			if msg == "" {
				msg = fmt.Sprintf("status %d", r.StatusCode)
			}
			if r.Error != nil {
				msg = fmt.Sprintf("%s (%s)", r.Error.Message, r.Error.Kind)
			}
			fmt.Fprintf(w, "%s %s: %s\n", a.theme.Badge(domain.StatusFail), r.Table, msg)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", a.theme.Badge(domain.StatusPass), r.Table, r.Message)
	}
	return failed
}
