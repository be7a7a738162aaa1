// Package ui provides the album terminal user interface.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is a value type: Update returns a
// modified copy and store operations run as tea.Cmds so the event loop never
// blocks on the document store or the search index. Every command ends by
// requesting a fresh state.Snapshot, which is the only data the views read.
//
// # Views
//
//   - Tracks: the user's tracks, optionally limited to one album
//   - Comments: the user's commented tracks, newest comment first
//   - Feed: public commented tracks from everyone, paged from the index
//   - Albums: the user's albums; enter filters the tracks view
//   - Logs: the tail of the application log with a level floor
//
// The album side menu (m) overlays the list views. The player bar appears
// after the first track is played and stays visible for the session.
//
// # Key Features
//
//   - Fuzzy filter (/) over track labels and comment text
//   - Inline input for new tracks ("Title - Artist"), albums and comments
//   - Theme, last view and log level are persisted to the preferences file
package ui
