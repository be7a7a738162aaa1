// Package docstore is the authoritative per-user document store for tracks
// and albums.
//
// Three pieces fit together:
//
//   - Backend: raw JSON documents keyed by user, collection and id. Two
//     implementations exist, BadgerBackend (embedded key-value store) and
//     SQLiteBackend (single table, schema migrated via PRAGMA user_version).
//   - Repository: the typed music.Repository on top of a Backend. It assigns
//     time-ordered UUIDs and applies patches inside the backend's
//     read-modify-write transaction.
//   - Server and Client: the same repositories over HTTP. The server is a gin
//     router guarded by bearer tokens; the client maps HTTP statuses back to
//     music error kinds (401/403 Unauthorized, 404 NotFound, anything else
//     RemoteUnavailable) and rate-limits outgoing requests.
//
// The wire format:
//
//	POST   /v1/users/{user}/{collection}        draft  → 201 {"id": "..."}
//	PATCH  /v1/users/{user}/{collection}/{id}   patch  → 204
//	DELETE /v1/users/{user}/{collection}/{id}          → 204
//	GET    /v1/users/{user}/{collection}               → 200 {"documents": [...]}
//
// Listing is ordered by creation time ascending.
package docstore
