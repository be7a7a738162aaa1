// Package session holds the signed-in user for the stores and remote
// clients.
package session

import (
	"strings"
	"sync"

	"github.com/ruo0o0/music-album/internal/music"
)

// Profile is what the user shows on their feed entries.
type Profile struct {
	DisplayName string
	AvatarURL   string
}

// Session is a mutable music.SessionProvider. The zero value is signed out.
type Session struct {
	mu      sync.RWMutex
	userID  string
	token   string
	profile Profile
}

var _ music.SessionProvider = (*Session)(nil)

// New returns a session signed in as userID, or signed out when userID is
// blank.
func New(userID, token string, profile Profile) *Session {
	s := &Session{}
	s.SignIn(userID, token, profile)
	return s
}

// SignIn replaces the current user.
func (s *Session) SignIn(userID, token string, profile Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = strings.TrimSpace(userID)
	s.token = strings.TrimSpace(token)
	s.profile = profile
}

// SignOut clears the user.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID, s.token, s.profile = "", "", Profile{}
}

// UserID implements music.SessionProvider.
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// Token implements music.SessionProvider.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns the current profile.
func (s *Session) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Attribution returns the profile as a feed attribution.
func (s *Session) Attribution() music.Attribution {
	return s.Profile().attribution()
}

// SetProfile updates the profile and returns the attribution patch that
// brings existing tracks in line. The patch is zero when nothing changed.
func (s *Session) SetProfile(p Profile) music.AttributionPatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch := music.DiffAttribution(s.profile.attribution(), p.attribution())
	s.profile = p
	return patch
}

func (p Profile) attribution() music.Attribution {
	return music.Attribution{DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}
