package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
)

const timestampLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var top bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show what the profile played recently",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				out := cmd.OutOrStdout()
				if top {
					counts, err := core.Listening.MostPlayed(cmd.Context(), limit)
					if err != nil {
						return err
					}
					if len(counts) == 0 {
						fmt.Fprintln(out, "Nothing played yet")
						return nil
					}
					rows := make([][]string, 0, len(counts))
					for _, c := range counts {
						rows = append(rows, []string{strconv.Itoa(c.Count), c.Track.DisplayTitle(), c.Track.Artist, c.Track.Album})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Plays", "Title", "Artist", "Album"},
						rows,
						[]columnAlignment{alignRight},
					))
					return nil
				}

				records, err := core.Listening.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "Nothing played yet")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{formatTime(r.PlayedAt), r.Track.DisplayTitle(), r.Track.Artist, r.Track.Album})
				}
				fmt.Fprintln(out, renderTable([]string{"Played", "Title", "Artist", "Album"}, rows, nil))
				return nil
			})
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows (0 for all)")
	historyCmd.Flags().BoolVar(&top, "top", false, "Rank tracks by play count instead")
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the profile's play history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				if err := core.Listening.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
				return nil
			})
		},
	}
}

func newLikesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "likes",
		Short: "List the profile's liked tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				likes, err := core.Listening.Likes(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(likes) == 0 {
					fmt.Fprintln(out, "No liked tracks")
					return nil
				}
				rows := make([][]string, 0, len(likes))
				for _, l := range likes {
					rows = append(rows, []string{formatTime(l.LikedAt), l.Track.DisplayTitle(), l.Track.Artist, l.Track.Album})
				}
				fmt.Fprintln(out, renderTable([]string{"Liked", "Title", "Artist", "Album"}, rows, nil))
				return nil
			})
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}
