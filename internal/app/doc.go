// Package app is the composition root of album.
//
// # Overview
//
// This package wires configuration, the document store, the search index,
// the state stores and the UI into one running program. The cli package
// calls Run for the TUI and Build/Open for one-shot commands.
//
// # Architecture
//
//  1. Load ~/.config/album/config.toml (config.Load)
//  2. Open the log file; the TUI owns the terminal
//  3. Open the docstore: a local badger or sqlite file, or the HTTP client
//  4. Create the weaviate index when [search] host is set
//  5. Build state.Store around the session and open the user's library
//  6. Start the feed poller and, with metrics_bind, the debug server
//  7. Start the TUI and block until the user quits or the context ends
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read album config
//	       ├─────> OpenLogger()         slog text handler on the log file
//	       ├─────> Build()              docstore + searchindex + state.Store
//	       ├─────> Runtime.Open()       Load tracks and albums (15s timeout)
//	       ├─────> StartPoller()        Background feed refresh
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> FeedStore.FetchPage(0)             │
//	│  └─> FeedStore.RecordSync(err)          │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller refreshes the first feed page every poll_seconds (default 30).
// Each consecutive failure doubles the wait up to 30 seconds; two failures
// in a row mark the feed offline in the header. Failures are logged and
// polling continues.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Log file or local database cannot be opened
//   - Library load failure (store unreachable, not signed in)
//
// Recoverable errors (logged, shown in the status line):
//   - Feed poll failures
//   - Failed add, update, delete or comment operations
//   - Debug server bind failure
//
// # Configuration
//
//   - ConfigPath: config.toml (default ~/.config/album/config.toml)
//   - PrefsPath: UI preferences (default ~/.config/album/prefs.toml)
//   - PollEvery: feed refresh in seconds, overrides [app] poll_seconds
package app
