package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/littlstar/lstar/internal/domain"
)

// Command factories for async operations

// WaitForEventCmd blocks until the hub delivers the next event.
// It returns nil once the channel is closed.
func WaitForEventCmd(ch <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// PlayCmd hands a video to the player
func PlayCmd(svc Player, v *domain.Video) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := svc.Play(ctx, v, 0); err != nil {
			return ErrMsg{Err: err, Context: "playing " + v.Title}
		}
		return PlaybackStartedMsg{Video: v}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// StatusCmd sets a status message
func StatusCmd(message string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Message: message, IsError: isError}
	}
}
