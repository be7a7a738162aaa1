package state

import "sync"

// UIState holds ephemeral presentation flags. None of them are persisted and
// none have timeouts: a loading flag that is started and never stopped stays
// set.
type UIState struct {
	mu               sync.RWMutex
	sideMenuOpen     bool
	playerBarVisible bool
	playerBarVersion int
	loadingNewTrack  bool
	loadingNewAlbum  bool
}

// UIFlags is a point-in-time copy of UIState.
type UIFlags struct {
	SideMenuOpen            bool `json:"side_menu_open"`
	PlayerBarVisible        bool `json:"player_bar_visible"`
	PlayerBarContentVersion int  `json:"player_bar_content_version"`
	LoadingNewTrack         bool `json:"loading_new_track"`
	LoadingNewAlbum         bool `json:"loading_new_album"`
}

// ToggleSideMenu flips the side menu and returns the new value.
func (u *UIState) ToggleSideMenu() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sideMenuOpen = !u.sideMenuOpen
	return u.sideMenuOpen
}

// SideMenuOpen reports whether the side menu is open.
func (u *UIState) SideMenuOpen() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sideMenuOpen
}

// ShowPlayerBar latches the player bar visible. There is no hide.
func (u *UIState) ShowPlayerBar() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.playerBarVisible = true
}

// PlayerBarVisible reports whether playback was ever requested.
func (u *UIState) PlayerBarVisible() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.playerBarVisible
}

// BumpPlayerBar latches the bar visible and increments the content version,
// returning the new version. Every change of active track bumps it, even
// when the same track is re-selected.
func (u *UIState) BumpPlayerBar() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.playerBarVisible = true
	u.playerBarVersion++
	return u.playerBarVersion
}

// PlayerBarContentVersion returns the content version counter.
func (u *UIState) PlayerBarContentVersion() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.playerBarVersion
}

// StartLoadingNewTrack sets the new-track loading flag.
func (u *UIState) StartLoadingNewTrack() { u.setLoading(&u.loadingNewTrack, true) }

// StopLoadingNewTrack clears the new-track loading flag.
func (u *UIState) StopLoadingNewTrack() { u.setLoading(&u.loadingNewTrack, false) }

// StartLoadingNewAlbum sets the new-album loading flag.
func (u *UIState) StartLoadingNewAlbum() { u.setLoading(&u.loadingNewAlbum, true) }

// StopLoadingNewAlbum clears the new-album loading flag.
func (u *UIState) StopLoadingNewAlbum() { u.setLoading(&u.loadingNewAlbum, false) }

// LoadingNewTrack reports the new-track loading flag.
func (u *UIState) LoadingNewTrack() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loadingNewTrack
}

// LoadingNewAlbum reports the new-album loading flag.
func (u *UIState) LoadingNewAlbum() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loadingNewAlbum
}

// Flags returns a copy of every flag.
func (u *UIState) Flags() UIFlags {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return UIFlags{
		SideMenuOpen:            u.sideMenuOpen,
		PlayerBarVisible:        u.playerBarVisible,
		PlayerBarContentVersion: u.playerBarVersion,
		LoadingNewTrack:         u.loadingNewTrack,
		LoadingNewAlbum:         u.loadingNewAlbum,
	}
}

func (u *UIState) setLoading(flag *bool, v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	*flag = v
}
