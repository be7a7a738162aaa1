package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
)

// ProfileOptions holds flags for the profile command.
type ProfileOptions struct {
	*RootOptions
	Name   string
	Avatar string
}

// ProfileView is the printed result of a profile sync.
type ProfileView struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Updated     int    `json:"updated" yaml:"updated"`
	Republished int    `json:"republished" yaml:"republished"`
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the name and avatar shown on your tracks",
		Long: `Rewrite the attribution on every track you own. Flags that are not given
keep the value from [session] in the config, so running the command without
flags brings old tracks in line after editing the config.

Public, commented tracks are republished to the feed index when one is
configured.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts.RootOptions, func(ctx context.Context, rt *app.Runtime) error {
				return runProfile(ctx, cmd, opts, rt)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "display name")
	cmd.Flags().StringVar(&opts.Avatar, "avatar", "", "avatar image URL")

	return cmd
}

func runProfile(ctx context.Context, cmd *cobra.Command, opts *ProfileOptions, rt *app.Runtime) error {
	p := rt.Session.Profile()
	if cmd.Flags().Changed("name") {
		p.DisplayName = opts.Name
	}
	if cmd.Flags().Changed("avatar") {
		p.AvatarURL = opts.Avatar
	}
	if patch := rt.Session.SetProfile(p); !patch.IsZero() {
		rt.Logger.Info("profile changed", "display_name", p.DisplayName, "avatar_url", p.AvatarURL)
	}

	changed, err := rt.Store.SyncAttribution(ctx, rt.Session.Attribution())
	view := ProfileView{DisplayName: p.DisplayName, AvatarURL: p.AvatarURL, Updated: len(changed)}
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("profile (%d tracks updated)", len(changed)), err)
	}

	if rt.Index != nil {
		for _, t := range changed {
			if !listed(t) {
				continue
			}
			if err := rt.Index.Publish(ctx, t); err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("publish %s", t.ID), err)
			}
			view.Republished++
		}
	}

	return formatter(cmd, opts.RootOptions).Success(view, func(w io.Writer) error {
		return writeProfile(w, view)
	})
}

func writeProfile(w io.Writer, v ProfileView) error {
	noun := "tracks"
	if v.Updated == 1 {
		noun = "track"
	}
	if _, err := fmt.Fprintf(w, "%s: updated %d %s\n", profileLabel(v), v.Updated, noun); err != nil {
		return err
	}
	if v.Republished > 0 {
		_, err := fmt.Fprintf(w, "republished %d to the feed\n", v.Republished)
		return err
	}
	return nil
}

func profileLabel(v ProfileView) string {
	name := v.DisplayName
	if name == "" {
		name = "(no name)"
	}
	if v.AvatarURL == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, v.AvatarURL)
}
