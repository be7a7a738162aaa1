// Package searchindex serves the global feed from a weaviate class.
//
// Every public, commented track is stored as one object of the class
// (default "CommentedTrack") under a UUID derived from the track id. Search
// filters on public and hasComment, optionally matches the query text
// against title, artist and comment, and sorts by comment date descending
// with limit/offset paging.
package searchindex
