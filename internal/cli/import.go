package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
	"github.com/ruo0o0/music-album/internal/tagimport"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Public      bool
	Album       string
	GroupAlbums bool
	Jobs        int
}

// ImportView is the printed result of an import.
type ImportView struct {
	Added  []TrackView   `json:"added" yaml:"added"`
	Failed []FailureView `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// FailureView is a file that could not be imported.
type FailureView struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file|playlist.m3u>...",
		Short: "Add audio files as tracks",
		Long: `Read the tags of audio files and add one track per file.

Title and artist come from the ID3, MP4, FLAC or OGG tags; files without a
title are named after the file. .m3u playlists are expanded to the files
they list.

Exit codes:
  0 - every file imported
  1 - some files could not be read
  2 - command error (bad config, store unreachable)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := tagimport.Expand(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "expand playlists", err)
			}
			return withRuntime(cmd.Context(), opts.RootOptions, func(ctx context.Context, rt *app.Runtime) error {
				return runImport(ctx, cmd, opts, rt, paths)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Public, "public", false, "make the imported tracks public")
	cmd.Flags().StringVarP(&opts.Album, "album", "a", "", "add every track to this album (id or title)")
	cmd.Flags().BoolVar(&opts.GroupAlbums, "group-albums", false, "file tracks under albums named by their album tag")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "files read in parallel")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, opts *ImportOptions, rt *app.Runtime, paths []string) error {
	albumID := ""
	if opts.Album != "" {
		id, ok := resolveAlbum(rt.Store.Albums.Albums(), opts.Album)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("no album %q", opts.Album))
		}
		albumID = id
	}

	im := &tagimport.Importer{
		Tracks: rt.Store.Tracks,
		Albums: rt.Store.Albums,
		Logger: rt.Logger.With("component", "import"),
	}
	res, err := im.Import(ctx, paths, tagimport.Options{
		Public:      opts.Public,
		AlbumID:     albumID,
		GroupAlbums: opts.GroupAlbums,
		Attribution: rt.Session.Attribution(),
		Concurrency: opts.Jobs,
	})

	view := ImportView{Added: trackViews(res.Added, rt.Store.Albums.Albums())}
	for _, f := range res.Failed {
		view.Failed = append(view.Failed, FailureView{Path: f.Path, Error: f.Err.Error()})
	}
	if werr := formatter(cmd, opts.RootOptions).Success(view, func(w io.Writer) error {
		return writeImport(w, view)
	}); werr != nil {
		return werr
	}

	if err != nil {
		return WrapExitError(ExitCommandError, "import", err)
	}
	if len(res.Failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files skipped", len(res.Failed), len(paths)))
	}
	return nil
}

func writeImport(w io.Writer, v ImportView) error {
	if _, err := fmt.Fprintf(w, "imported %d, skipped %d\n", len(v.Added), len(v.Failed)); err != nil {
		return err
	}
	for _, t := range v.Added {
		label := t.Title
		if t.Artist != "" {
			label += " - " + t.Artist
		}
		if _, err := fmt.Fprintf(w, "  + %s  %s\n", t.ID, label); err != nil {
			return err
		}
	}
	for _, f := range v.Failed {
		if _, err := fmt.Fprintf(w, "  ! %s: %s\n", f.Path, f.Error); err != nil {
			return err
		}
	}
	return nil
}
