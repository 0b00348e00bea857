package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.GetVersionInfo()
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Component", "Value"},
				[][]string{
					{"version", info.Version},
					{"commit", info.GitCommit},
					{"built", info.BuildTime},
				},
				nil,
			))
			return nil
		},
	}
}
