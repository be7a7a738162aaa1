package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	SideMenu   key.Binding
	Reload     key.Binding
	Filter     key.Binding

	// View switching
	ViewTracks   key.Binding
	ViewComments key.Binding
	ViewFeed     key.Binding
	ViewAlbums   key.Binding
	ViewLogs     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Library actions
	Play          key.Binding
	AddTrack      key.Binding
	AddAlbum      key.Binding
	Delete        key.Binding
	Comment       key.Binding
	RemoveComment key.Binding
	TogglePublic  key.Binding
	NextPage      key.Binding

	// Logs
	ToggleFollow key.Binding
	CycleLevel   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear filter / close"),
		),
		SideMenu: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Toggle album menu"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Fuzzy filter"),
		),

		ViewTracks: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Tracks"),
		),
		ViewComments: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Comments"),
		),
		ViewFeed: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Feed"),
		),
		ViewAlbums: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Albums"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("5", "l"),
			key.WithHelp("5/l", "Logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Play / select"),
		),
		AddTrack: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add track"),
		),
		AddAlbum: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Add album"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		Comment: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Write comment"),
		),
		RemoveComment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Remove comment"),
		),
		TogglePublic: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Toggle public"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next feed page"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle log level"),
		),
	}
}

// helpGroups returns the bindings shown in the help overlay, by section.
func (k keyMap) helpGroups() []helpSection {
	return []helpSection{
		{title: "Views", bindings: []key.Binding{k.Tab, k.ViewTracks, k.ViewComments, k.ViewFeed, k.ViewAlbums, k.ViewLogs, k.SideMenu}},
		{title: "Navigation", bindings: []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.Filter, k.Escape}},
		{title: "Library", bindings: []key.Binding{k.Play, k.AddTrack, k.AddAlbum, k.Delete, k.Comment, k.RemoveComment, k.TogglePublic}},
		{title: "Feed & Logs", bindings: []key.Binding{k.NextPage, k.Reload, k.ToggleFollow, k.CycleLevel}},
		{title: "General", bindings: []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}
}
