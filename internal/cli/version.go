package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streakerapp/supacheck/internal/buildinfo"
)

func versionCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
