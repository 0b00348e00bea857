package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>...",
		Short: "Add the audio files under one or more folders to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folders := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				folders = append(folders, abs)
			}

			return ctx.withCore(cmd, func(core *app.Core) error {
				tracks, err := core.Library.Scan(cmd.Context(), folders...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tracks) > 0 {
					fmt.Fprintln(out, renderTracks(tracks))
				}
				fmt.Fprintf(out, "Scanned %d tracks\n", len(tracks))
				return nil
			})
		},
	}
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var search, genre string

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List the tracks in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				var (
					tracks []domain.Track
					err    error
				)
				switch {
				case genre != "":
					tracks, err = genreTracks(cmd.Context(), core, genre)
				case search != "":
					tracks, err = core.Library.Search(cmd.Context(), search)
				default:
					tracks, err = core.Library.Tracks(cmd.Context())
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(tracks) == 0 {
					fmt.Fprintln(out, "No tracks found")
					return nil
				}
				fmt.Fprintln(out, renderTracks(tracks))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list tracks whose title, artist or album contains this text")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Only list tracks of this genre")
	cmd.AddCommand(newTracksRemoveCommand(ctx))
	return cmd
}

func newTracksRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file>...",
		Short: "Remove tracks from the library by file path",
		Long: `Remove tracks from the library by file path. The files stay on disk;
queue entries, history and likes of the removed tracks are dropped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(core *app.Core) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					path, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve %s: %w", arg, err)
					}
					track, err := core.Library.TrackByPath(cmd.Context(), path)
					if err != nil {
						return err
					}
					if err := core.Library.RemoveTrack(cmd.Context(), track.ID); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %s\n", track.DisplayTitle())
				}
				return nil
			})
		},
	}
}

func genreTracks(ctx context.Context, core *app.Core, name string) ([]domain.Track, error) {
	genres, err := core.Library.Genres(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range genres {
		if strings.EqualFold(g.Name, strings.TrimSpace(name)) {
			return core.Library.GenreTracks(ctx, g.ID)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrGenreNotFound, name)
}

func renderTracks(tracks []domain.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.DisplayTitle(),
			t.Artist,
			t.Album,
			domain.FormatDuration(t.Duration),
		})
	}
	return renderTable(
		[]string{"#", "Title", "Artist", "Album", "Duration"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
