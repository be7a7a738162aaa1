package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/state"
)

const actionTimeout = 10 * time.Second

// actionMsg reports the outcome of a store operation started from a key.
type actionMsg struct {
	verb string
	err  error
}

// runAction runs fn off the UI goroutine with a bounded context.
func (m Model) runAction(verb string, fn func(ctx context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, actionTimeout)
		defer cancel()
		return actionMsg{verb: verb, err: fn(ctx)}
	}
}

// parseTrackInput splits "Title - Artist". The artist part is optional.
func parseTrackInput(s string) (title, artist string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	title, artist, _ = strings.Cut(s, " - ")
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	return title, artist, title != ""
}

func (m Model) addTrackCmd(input string) tea.Cmd {
	title, artist, ok := parseTrackInput(input)
	if !ok {
		return nil
	}
	draft := music.TrackDraft{
		Title:   title,
		Artist:  artist,
		Public:  true,
		AlbumID: m.snapshot.Filter,
	}
	if m.session != nil {
		draft.Attribution = m.session.Attribution()
	}
	store := m.store
	store.Tracks.SetDraft(draft)
	store.UI.StartLoadingNewTrack()
	return m.runAction("added "+title, func(ctx context.Context) error {
		defer store.UI.StopLoadingNewTrack()
		d, _ := store.Tracks.Draft()
		if _, err := store.Tracks.AddTrack(ctx, d); err != nil {
			return err
		}
		store.Tracks.ClearDraft()
		return nil
	})
}

func (m Model) addAlbumCmd(input string) tea.Cmd {
	title := strings.TrimSpace(input)
	if title == "" {
		return nil
	}
	store := m.store
	store.Albums.SetDraft(music.AlbumDraft{Title: title})
	store.UI.StartLoadingNewAlbum()
	return m.runAction("created album "+title, func(ctx context.Context) error {
		defer store.UI.StopLoadingNewAlbum()
		d, _ := store.Albums.Draft()
		if _, err := store.Albums.AddAlbum(ctx, d); err != nil {
			return err
		}
		store.Albums.ClearDraft()
		return nil
	})
}

func (m Model) deleteTrackCmd(t music.Track) tea.Cmd {
	store := m.store
	return m.runAction("deleted "+t.Label(), func(ctx context.Context) error {
		if err := store.Tracks.DeleteTrack(ctx, t.ID); err != nil {
			return err
		}
		store.Feed.RemoveEntry(t.ID)
		return nil
	})
}

func (m Model) deleteAlbumCmd(a music.Album) tea.Cmd {
	store := m.store
	return m.runAction("deleted album "+a.Title, func(ctx context.Context) error {
		if err := store.Albums.DeleteAlbum(ctx, a.ID); err != nil {
			return err
		}
		if store.Filter() == a.ID {
			store.SetFilter("")
		}
		return nil
	})
}

func (m Model) commentCmd(id, text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	store := m.store
	return m.runAction("commented", func(ctx context.Context) error {
		_, err := store.CommentTrack(ctx, id, text)
		return err
	})
}

func (m Model) uncommentCmd(id string) tea.Cmd {
	store := m.store
	return m.runAction("removed comment", func(ctx context.Context) error {
		return store.UncommentTrack(ctx, id)
	})
}

func (m Model) togglePublicCmd(t music.Track) tea.Cmd {
	store := m.store
	verb := "made public"
	if t.Public {
		verb = "made private"
	}
	return m.runAction(verb, func(ctx context.Context) error {
		updated, err := store.Tracks.UpdateTrack(ctx, t.ID, music.TrackPatch{Public: music.Ptr(!t.Public)})
		if err != nil {
			return err
		}
		switch {
		case !updated.Public:
			store.Feed.RemoveEntry(updated.ID)
		case updated.HasComment():
			store.Feed.InjectOwn(music.EntryFromTrack(updated))
		}
		return nil
	})
}

func (m Model) nextPageCmd() tea.Cmd {
	if !m.feedOn {
		return nil
	}
	feed := m.store.Feed
	return m.runAction("loaded feed page", func(ctx context.Context) error {
		_, err := feed.NextPage(ctx)
		feed.RecordSync(err)
		return err
	})
}

func (m Model) reloadCmd() tea.Cmd {
	store := m.store
	feedOn := m.feedOn
	return m.runAction("reloaded", func(ctx context.Context) error {
		if err := store.Open(ctx); err != nil {
			return err
		}
		if !feedOn {
			return nil
		}
		store.Feed.Reset()
		_, err := store.Feed.NextPage(ctx)
		store.Feed.RecordSync(err)
		return err
	})
}

// describeError renders err for the status line.
func describeError(err error) string {
	switch {
	case errors.Is(err, music.ErrFeedExhausted):
		return "end of feed"
	case errors.Is(err, music.ErrUnauthorized):
		return "not signed in or token rejected"
	case errors.Is(err, music.ErrRemoteUnavailable):
		return "store unreachable"
	case errors.Is(err, music.ErrNotFound):
		return "already gone"
	case errors.Is(err, music.ErrPreconditionNotMet):
		return "sign in first"
	default:
		return err.Error()
	}
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}
