package tui

import (
	"github.com/littlstar/lstar/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// EventMsg wraps an event delivered by the notification hub
type EventMsg struct {
	Event domain.Event
}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Video *domain.Video
}

// TickMsg drives the spinner
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
