// Package tagimport turns audio files into track drafts using their embedded
// tags (ID3, MP4, FLAC and Ogg via github.com/dhowden/tag). M3U playlists
// given on the command line are expanded to the files they list.
package tagimport
