package music

import (
	"strings"
	"time"
)

// Comment is the free-text note a user attaches to one of their tracks. A
// track without a comment carries a nil *Comment.
type Comment struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Attribution identifies the author of a track as shown in the feed.
type Attribution struct {
	DisplayName string `json:"profile_name,omitempty"`
	AvatarURL   string `json:"profile_image,omitempty"`
}

// AttributionPatch changes a subset of attribution fields.
type AttributionPatch struct {
	DisplayName *string `json:"profile_name,omitempty"`
	AvatarURL   *string `json:"profile_image,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p AttributionPatch) Apply(a Attribution) Attribution {
	if p.DisplayName != nil {
		a.DisplayName = *p.DisplayName
	}
	if p.AvatarURL != nil {
		a.AvatarURL = *p.AvatarURL
	}
	return a
}

// IsZero reports whether the patch changes nothing.
func (p AttributionPatch) IsZero() bool {
	return p.DisplayName == nil && p.AvatarURL == nil
}

// DiffAttribution returns the patch that turns from into to. It is zero when
// they are equal.
func DiffAttribution(from, to Attribution) AttributionPatch {
	var p AttributionPatch
	if from.DisplayName != to.DisplayName {
		p.DisplayName = Ptr(to.DisplayName)
	}
	if from.AvatarURL != to.AvatarURL {
		p.AvatarURL = Ptr(to.AvatarURL)
	}
	return p
}

// Track is a music item owned by a user.
type Track struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id,omitempty"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	PreviewURL  string      `json:"preview_url,omitempty"`
	CreatedDate time.Time   `json:"created_date"`
	Comment     *Comment    `json:"comment,omitempty"`
	Public      bool        `json:"public"`
	Attribution Attribution `json:"attribution"`
	AlbumID     string      `json:"album_id,omitempty"`
}

// EntityID implements collection.Entity.
func (t Track) EntityID() string { return t.ID }

// Created returns the creation timestamp used for repository ordering.
func (t Track) Created() time.Time { return t.CreatedDate }

// HasComment reports whether the track carries a comment.
func (t Track) HasComment() bool { return t.Comment != nil }

// CommentDate returns the comment date, or the zero time when uncommented.
func (t Track) CommentDate() time.Time {
	if t.Comment == nil {
		return time.Time{}
	}
	return t.Comment.Date
}

// Clone returns a copy that shares no pointers with t.
func (t Track) Clone() Track {
	if t.Comment != nil {
		c := *t.Comment
		t.Comment = &c
	}
	return t
}

// Label renders "Title - Artist" for display.
func (t Track) Label() string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "(untitled)"
	}
	if artist := strings.TrimSpace(t.Artist); artist != "" {
		return title + " - " + artist
	}
	return title
}

// CommentedBefore orders tracks by comment date, newest first.
func CommentedBefore(a, b Track) bool {
	return a.CommentDate().After(b.CommentDate())
}

// TrackDraft is an uncommitted track held for editing. It never has an id.
type TrackDraft struct {
	OwnerID     string      `json:"owner_id,omitempty"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	PreviewURL  string      `json:"preview_url,omitempty"`
	CreatedDate time.Time   `json:"created_date"`
	Comment     *Comment    `json:"comment,omitempty"`
	Public      bool        `json:"public"`
	Attribution Attribution `json:"attribution"`
	AlbumID     string      `json:"album_id,omitempty"`
}

// Commit builds a new Track from the draft and a server-issued id. The draft
// itself is left untouched.
func (d TrackDraft) Commit(id string) Track {
	t := Track{
		ID:          id,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Artist:      d.Artist,
		ImageURL:    d.ImageURL,
		PreviewURL:  d.PreviewURL,
		CreatedDate: d.CreatedDate,
		Comment:     d.Comment,
		Public:      d.Public,
		Attribution: d.Attribution,
		AlbumID:     d.AlbumID,
	}
	return t.Clone()
}

// TrackPatch is a partial update. Nil fields are left unchanged. ClearComment
// removes the comment and wins over Comment.
type TrackPatch struct {
	Title        *string          `json:"title,omitempty"`
	Artist       *string          `json:"artist,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	PreviewURL   *string          `json:"preview_url,omitempty"`
	Public       *bool            `json:"public,omitempty"`
	AlbumID      *string          `json:"album_id,omitempty"`
	Comment      *Comment         `json:"comment,omitempty"`
	ClearComment bool             `json:"clear_comment,omitempty"`
	Attribution  AttributionPatch `json:"attribution,omitempty"`
}

// Apply returns a copy of t with the patch applied.
func (p TrackPatch) Apply(t Track) Track {
	t = t.Clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Artist != nil {
		t.Artist = *p.Artist
	}
	if p.ImageURL != nil {
		t.ImageURL = *p.ImageURL
	}
	if p.PreviewURL != nil {
		t.PreviewURL = *p.PreviewURL
	}
	if p.Public != nil {
		t.Public = *p.Public
	}
	if p.AlbumID != nil {
		t.AlbumID = *p.AlbumID
	}
	switch {
	case p.ClearComment:
		t.Comment = nil
	case p.Comment != nil:
		c := *p.Comment
		t.Comment = &c
	}
	t.Attribution = p.Attribution.Apply(t.Attribution)
	return t
}

// Album is a named grouping of tracks.
type Album struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedDate time.Time `json:"created_date"`
	Public      bool      `json:"public"`
}

// EntityID implements collection.Entity.
func (a Album) EntityID() string { return a.ID }

// Created returns the creation timestamp used for repository ordering.
func (a Album) Created() time.Time { return a.CreatedDate }

// AlbumDraft is an uncommitted album.
type AlbumDraft struct {
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedDate time.Time `json:"created_date"`
	Public      bool      `json:"public"`
}

// Commit builds a new Album from the draft and a server-issued id.
func (d AlbumDraft) Commit(id string) Album {
	return Album{
		ID:          id,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatedDate: d.CreatedDate,
		Public:      d.Public,
	}
}

// AlbumPatch is a partial album update.
type AlbumPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p AlbumPatch) Apply(a Album) Album {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	if p.Public != nil {
		a.Public = *p.Public
	}
	return a
}

// FeedEntry is a snapshot of someone's public, commented track as served by
// the search index. It shares no identity or history with the owner's Track.
type FeedEntry struct {
	Track
}

// EntryFromTrack snapshots t for the feed.
func EntryFromTrack(t Track) FeedEntry {
	return FeedEntry{Track: t.Clone()}
}

// Clone returns a copy that shares no pointers with e.
func (e FeedEntry) Clone() FeedEntry {
	return FeedEntry{Track: e.Track.Clone()}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
