package notify

import (
	"fmt"

	"github.com/littlstar/lstar/internal/domain"
)

// ChannelObserver forwards events to a channel, e.g. for Bubble Tea or a CLI wait loop.
type ChannelObserver struct {
	ch chan<- domain.Event
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.Event) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// Notify sends the event to the channel (non-blocking if full).
func (o *ChannelObserver) Notify(ev domain.Event) {
	select {
	case o.ch <- ev:
	default: // Non-blocking if channel full
	}
}

func eventName(ev domain.Event) string {
	return fmt.Sprintf("%T", ev)
}
