package main

import (
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/cadence/internal/app"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var profileFlag string
	var mockAudio bool

	ctx := newCommandContext(&configFlag, &profileFlag, &mockAudio)

	rootCmd := &cobra.Command{
		Use:           "cadence",
		Short:         "Cadence music player",
		Long:          "Cadence plays a queue of tracks from a local music library.\nRun without a subcommand to open the player window.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cmd.Context(), app.Options{Config: cfg})
			if err != nil {
				return err
			}
			defer application.Shutdown()

			application.Run()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "Listener profile (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&mockAudio, "mock-audio", false, "Use a silent audio engine")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newTracksCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLikesCommand(ctx))
	rootCmd.AddCommand(newProfilesCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
