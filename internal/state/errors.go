package state

import (
	"errors"

	"github.com/ruo0o0/music-album/internal/music"
)

var (
	errNoSession  = errors.New("no signed-in user")
	errEmptyID    = errors.New("remote store returned an empty id")
	errNoSearcher = errors.New("no feed searcher configured")
	errNoCursor   = errors.New("feed not fetched yet")
)

// currentUser resolves the signed-in user or fails with PreconditionNotMet.
func currentUser(session music.SessionProvider, op string) (string, error) {
	if session == nil {
		return "", music.E(music.KindPreconditionNotMet, op, "", errNoSession)
	}
	uid, ok := session.UserID()
	if !ok || uid == "" {
		return "", music.E(music.KindPreconditionNotMet, op, "", errNoSession)
	}
	return uid, nil
}

// remoteErr tags a collaborator failure with op and id. Errors that already
// carry a kind keep it; anything else is treated as the remote being
// unavailable.
func remoteErr(op, id string, err error) error {
	kind := music.KindOf(err)
	if kind == "" {
		kind = music.KindRemoteUnavailable
	}
	return music.E(kind, op, id, err)
}

func notFound(op, id string) error {
	return music.E(music.KindNotFound, op, id, nil)
}
