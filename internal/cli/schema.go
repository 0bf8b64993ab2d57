package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/infra/config"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/pgschema"
	"github.com/streakerapp/supacheck/internal/usecase"
)

func schemaCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "schema",
		Short: "Manage the app tables over a direct Postgres connection",
	}
	c.AddCommand(schemaApplyCmd(a))
	return c
}

func schemaApplyCmd(a *app) *cobra.Command {
	var relax, dryRun bool

	c := &cobra.Command{
		Use:   "apply",
		Short: "Create the app tables and RLS policies in one transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProject()
			if err != nil {
				return err
			}

			in := usecase.SchemaInput{Statements: pgschema.Statements()}
			if relax {
				payload, err := p.profiles().LoadProfile(p.cfg.Check.ProfileFile)
				if err != nil {
					return err
				}
				in.RelaxedColumns = usecase.OnboardingColumns(payload)
				in.Relax = pgschema.RelaxNotNull(p.cfg.Check.ProfileTable, in.RelaxedColumns)
			}

			w := cmd.OutOrStdout()
			if dryRun {
				for _, s := range append(in.Statements, in.Relax...) {
					fmt.Fprintf(w, "%s;\n\n", strings.TrimSpace(s))
				}
				return nil
			}

			if err := config.RequireDatabase(p.cfg); err != nil {
				return err
			}
			uc := usecase.NewApplySchema(pgschema.NewApplier(p.cfg.Project.DatabaseURL), logger.L())
			res, err := uc.Execute(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%s applied %d statement(s)\n", a.theme.Pass.Render("ok"), res.Statements)
			if len(res.Relaxed) > 0 {
				fmt.Fprintf(w, "  nullable on %s: %s\n", p.cfg.Check.ProfileTable, strings.Join(res.Relaxed, ", "))
			}
			return nil
		},
	}

	c.Flags().BoolVar(&relax, "relax-not-null", false, "Also drop NOT NULL on the profile onboarding columns")
	c.Flags().BoolVar(&dryRun, "print", false, "Print the statements instead of executing them")
	return c
}
