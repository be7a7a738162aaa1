// Package state holds the client-side view of a signed-in user's music
// library and of the cross-user feed.
//
// # Overview
//
// A Store groups four sub-stores:
//
//   - TrackStore: the user's tracks, newest first, plus the derived view of
//     commented tracks ordered by comment date.
//   - AlbumStore: the user's albums, newest first.
//   - FeedStore: public commented tracks from every user, as served by the
//     search index, with a pagination cursor.
//   - UIState: ephemeral presentation flags.
//
// The Store is built with its remote collaborators injected (see Options)
// and has an explicit lifecycle: New performs no I/O, Open loads the user's
// data, Close drops it on sign-out.
//
// # Remote-first writes
//
// Every intent on tracks and albums issues exactly one remote call and only
// touches local state once that call succeeds:
//
//	AddTrack(draft)
//	  → repo.Add(uid, draft)   fails: nothing changes, error returned
//	  → draft.Commit(id)       new record, the draft is not mutated
//	  → owned.Upsert(head)
//	  → commented.InsertOrdered (if the track has a comment)
//
// Update and delete fail fast with NotFound when the id is not held locally,
// without calling the remote. Operations that need a signed-in user fail
// with PreconditionNotMet when there is none.
//
// # Concurrency
//
// Each sub-store guards its collections with its own RWMutex, held only for
// the local mutation and never across network I/O. Intents targeting the
// same id are serialized by a per-id lock held across the remote call and
// the local commit, so the last write issued is also the last applied.
//
// Reads return copies. Mutating a returned Track or slice never affects the
// store.
//
// # Errors
//
// Failures are *music.Error values and match the music sentinels via
// errors.Is:
//
//	if errors.Is(err, music.ErrNotFound) { ... }
//
// No failure leaves the store unusable.
//
// # Feed pagination
//
// The cursor is the next page to request. It is absent until the first
// successful FetchPage, which sets it to 1. LoadMore advances it by exactly
// one. Once a page at or past the cursor comes back empty the feed is marked
// exhausted and LoadMore fails with FeedExhausted instead of advancing.
package state
