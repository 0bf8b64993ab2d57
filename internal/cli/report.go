package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/usecase"
)

func reportCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "report",
		Short: "Inspect saved check reports",
	}
	c.AddCommand(reportListCmd(a))
	return c
}

func reportListCmd(a *app) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProject()
			if err != nil {
				return err
			}

			refs, err := usecase.NewListReports(p.reports()).Execute(limit)
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no reports yet (run `supacheck check`)")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tFAILURES\tEMAIL")
			for _, r := range refs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Failures, r.Email)
			}
			return tw.Flush()
		},
	}

	c.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of reports (0 for all)")
	return c
}
