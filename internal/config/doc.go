// Package config loads album's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/album/config.toml
//  3. If the file doesn't exist, return Default()
//  4. Fields left empty in the file keep their defaults
//
// The merged result is validated with go-playground/validator struct tags
// plus backend-specific checks, so a bad value fails at startup rather than
// at the first remote call.
//
// # TOML Format
//
//	[session]
//	user_id = "u1"
//	token = "secret"
//	display_name = "Ziggy"
//
//	[docstore]
//	backend = "badger"            # http | badger | sqlite
//	url = "127.0.0.1:7488"        # http backend
//	path = "~/.local/share/album/db"
//	requests_per_second = 0       # http backend; 0 means unlimited
//	timeout_seconds = 10
//
//	[search]
//	host = "localhost:8080"       # empty disables the global feed
//	scheme = "http"
//	class = "CommentedTrack"
//	page_size = 20
//
//	[server]
//	bind = "127.0.0.1:7488"
//	tokens = { "secret" = "u1" }
//
//	[app]
//	poll_seconds = 30
//	log_file = "~/.local/share/album/album.log"
//	log_level = "info"
//	metrics_bind = ""             # empty disables the debug server
//
// Tilde expansion applies to the config path, docstore.path and app.log_file.
package config
