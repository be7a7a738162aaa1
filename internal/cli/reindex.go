package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
	"github.com/ruo0o0/music-album/internal/music"
)

// ReindexView is the printed result of a reindex.
type ReindexView struct {
	Published   int `json:"published" yaml:"published"`
	Unpublished int `json:"unpublished" yaml:"unpublished"`
}

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push your tracks to the feed index",
		Long: `Create the feed class in the search index if needed, then publish every
public, commented track you own and remove the rest from the index.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), rootOpts, func(ctx context.Context, rt *app.Runtime) error {
				return runReindex(ctx, cmd, rootOpts, rt)
			})
		},
	}
}

func runReindex(ctx context.Context, cmd *cobra.Command, opts *RootOptions, rt *app.Runtime) error {
	if rt.Index == nil {
		return NewExitError(ExitCommandError, "feed disabled: set [search] host in the config")
	}
	if err := rt.Index.EnsureSchema(ctx); err != nil {
		return WrapExitError(ExitCommandError, "ensure schema", err)
	}

	var view ReindexView
	for _, t := range rt.Store.Tracks.Tracks() {
		if err := rt.Index.Publish(ctx, t); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("publish %s", t.ID), err)
		}
		if listed(t) {
			view.Published++
		} else {
			view.Unpublished++
		}
	}
	rt.Logger.Info("reindexed", "published", view.Published, "unpublished", view.Unpublished)

	return formatter(cmd, opts).Success(view, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "published %d, unpublished %d\n", view.Published, view.Unpublished)
		return err
	})
}

// listed reports whether t belongs in the feed.
func listed(t music.Track) bool {
	return t.Public && t.HasComment()
}
