package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
	"github.com/ruo0o0/music-album/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	PrefsPath  string
	Format     string // "text" | "json" | "yaml"
	Poll       int
}

// NewRootCommand creates the root command for the album CLI. Run without a
// subcommand it opens the TUI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "album",
		Short: "album - your music, your albums, everyone's comments",
		Long: "A terminal music library: keep tracks and albums, comment on what you play " +
			"and follow the global feed of public comments.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Poll < 0 {
				return NewExitError(ExitCommandError, "--poll must not be negative")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.ConfigPath,
				PrefsPath:  opts.PrefsPath,
				PollEvery:  opts.Poll,
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.config/album/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.PrefsPath, "prefs", "", "UI preferences file (default ~/.config/album/prefs.toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	cmd.Flags().IntVar(&opts.Poll, "poll", 0, "feed refresh interval in seconds (default from config)")

	cmd.AddCommand(NewTracksCommand(opts))
	cmd.AddCommand(NewAlbumsCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))

	return cmd
}

// loadConfig reads the config named by the global flags.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}

// withRuntime opens the signed-in user's library, calls fn and releases
// everything afterwards. Logs go to the configured log file.
func withRuntime(ctx context.Context, opts *RootOptions, fn func(ctx context.Context, rt *app.Runtime) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, logCloser, err := app.OpenLogger(cfg.App.LogFile, cfg.App.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "open log", err)
	}
	defer logCloser.Close()

	rt, err := app.Build(cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "open library", err)
	}
	defer rt.Close()

	if err := rt.Open(ctx); err != nil {
		return WrapExitError(ExitCommandError, "open library", err)
	}
	defer rt.Store.Close()

	return fn(ctx, rt)
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
