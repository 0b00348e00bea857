package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the play queue of a profile",
	}

	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved queue in play order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				out := cmd.OutOrStdout()
				entries := core.Queue.Entries()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				current := core.Queue.Index()
				rows := make([][]string, 0, len(entries))
				for i, e := range entries {
					marker := ""
					if i == current {
						marker = "▶"
					}
					rows = append(rows, []string{
						marker,
						strconv.Itoa(i + 1),
						e.Track.DisplayTitle(),
						e.Track.Artist,
						e.Track.Album,
						domain.FormatDuration(e.Track.Duration),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"", "#", "Title", "Artist", "Album", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))

				total, remaining := core.Queue.Durations()
				fmt.Fprintf(out, "%d tracks, %s total, %s remaining\n",
					len(entries), domain.FormatDuration(total), domain.FormatDuration(remaining))
				fmt.Fprintf(out, "Shuffle: %s  Repeat: %s\n", yesNo(core.Queue.Shuffled()), core.Queue.Repeat())
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the saved queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				n := len(core.Queue.Entries())
				core.Queue.Clear()
				if err := core.Queue.Save(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", n)
				return nil
			})
		},
	}
}
