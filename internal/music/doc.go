// Package music defines the domain records shared by the stores and their
// remote collaborators: tracks, albums, feed entries, drafts and patches, the
// collaborator interfaces, and the categorized Error type.
//
// # Records
//
// Track and Album are committed records. They are built only from a draft
// plus an id assigned by the remote store (TrackDraft.Commit,
// AlbumDraft.Commit); drafts never carry ids. A track's comment is a
// *Comment, nil meaning "no comment".
//
// FeedEntry wraps a Track snapshot taken from the search index. It is a
// distinct type so feed data cannot be mistaken for the owner's own record.
//
// # Errors
//
// Every failure the stores report carries a Kind:
//
//	RemoteUnavailable  network or service failure
//	Unauthorized       missing or rejected session
//	NotFound           target id absent locally or remotely
//	PreconditionNotMet operation invoked without a session or prior step
//	LocalInvariant     index lookup empty where presence was required
//	FeedExhausted      feed returned an empty page
//
// Use errors.Is with the Err* sentinels, or KindOf.
package music
