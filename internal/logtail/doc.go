// Package logtail reads the tail of album's log file and parses slog text
// records for the TUI log pane.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries, so memory stays
// O(maxLines) no matter how large the file grows. A non-positive maxLines
// reads the whole file. A missing file yields nil, nil since the app may not
// have logged anything yet.
//
// # Parsing
//
// Parse understands the key=value format written by slog.NewTextHandler:
//
//	time=2024-06-01T12:00:00.000Z level=WARN msg="feed poll failed" attempt=3
//
// The time, level and msg keys fill the Entry fields; everything else lands
// in Attrs in file order. Lines that are not slog records (panic traces,
// output from libraries writing straight to the file) are kept with Parsed
// false so the pane can still show them.
package logtail
