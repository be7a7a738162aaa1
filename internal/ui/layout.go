package ui

import "time"

// Layout thresholds.
const (
	// LayoutCompactWidth is the width below which the side menu is hidden
	// even when open.
	LayoutCompactWidth = 70

	// SideMenuWidth is the width of the album side menu.
	SideMenuWidth = 26
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines kept in memory.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
