package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "List listener profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				profiles, err := core.Profiles.List(cmd.Context())
				if err != nil {
					return err
				}
				active, _ := core.Profiles.Active()

				rows := make([][]string, 0, len(profiles))
				for _, p := range profiles {
					rows = append(rows, []string{p.Name, yesNo(p.ID == active.ID), formatTime(p.CreatedAt)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Active", "Created"}, rows, nil))
				return nil
			})
		},
	}

	profilesCmd.AddCommand(newProfileAddCommand(ctx))
	return profilesCmd
}

func newProfileAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a listener profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withCore(cmd, func(core *app.Core) error {
				p, err := core.Profiles.Create(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s\n", p.Name)
				return nil
			})
		},
	}
}
