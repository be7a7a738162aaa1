package music

import (
	"errors"
	"fmt"
)

// Kind categorizes failures surfaced by the stores and their collaborators.
type Kind string

const (
	// KindRemoteUnavailable indicates a network or service failure.
	KindRemoteUnavailable Kind = "REMOTE_UNAVAILABLE"

	// KindUnauthorized indicates a missing or rejected session.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindNotFound indicates the target id is absent locally or remotely.
	KindNotFound Kind = "NOT_FOUND"

	// KindPreconditionNotMet indicates an operation needing a session (or a
	// prior step) was invoked without it.
	KindPreconditionNotMet Kind = "PRECONDITION_NOT_MET"

	// KindLocalInvariant indicates an index lookup came back empty where
	// presence was required.
	KindLocalInvariant Kind = "LOCAL_INVARIANT_VIOLATION"

	// KindFeedExhausted indicates the feed returned an empty page and no
	// further pages will be requested.
	KindFeedExhausted Kind = "FEED_EXHAUSTED"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrRemoteUnavailable  = &Error{Kind: KindRemoteUnavailable}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrPreconditionNotMet = &Error{Kind: KindPreconditionNotMet}
	ErrLocalInvariant     = &Error{Kind: KindLocalInvariant}
	ErrFeedExhausted      = &Error{Kind: KindFeedExhausted}
)

// Error is a categorized failure.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op names the failing operation, e.g. "update track".
	Op string

	// ID is the target entity id, when there is one.
	ID string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg += fmt.Sprintf(" (id=%s)", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so wrapped errors compare equal to
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an *Error of the given kind.
func E(kind Kind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRemote reports whether err came from a remote collaborator failing,
// either unreachable or rejecting the session.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrUnauthorized)
}
