package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/infra/fsproject"
	"github.com/streakerapp/supacheck/internal/usecase"
)

func initCmd(a *app) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Write supacheck.yaml and a profile fixture into the project root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := a.dir
			if root == "" {
				root = "."
			}
			uc := usecase.NewInitProject(fsproject.NewInitializer())
			if err := uc.Execute(root, a.url, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized supacheck project in %s\n", root)
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return c
}
