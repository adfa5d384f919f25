package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/littlstar/lstar/internal/domain"
)

// Hub delivers events to registered observers from a single goroutine.
//
// Publish never blocks. Events are delivered in publish order, and every
// event goes to the observers registered at the moment its delivery starts.
type Hub struct {
	Registry

	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []domain.Event
	busy    bool // Loop is delivering an event outside the lock
	closed  bool
	stopped chan struct{}
}

// NewHub starts the notification goroutine
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:  logger,
		stopped: make(chan struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	go h.loop()
	return h
}

// Register adds o, logging observers that cannot be registered
func (h *Hub) Register(o domain.Observer) {
	if err := h.Registry.Register(o); err != nil {
		h.logger.Warn("observer rejected", "observer", fmt.Sprintf("%T", o), "error", err)
	}
}

// Publish queues ev for delivery. Events published after Close are dropped.
func (h *Hub) Publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.logger.Debug("dropping event after close", "event", eventName(ev))
		return
	}
	h.queue = append(h.queue, ev)
	h.cond.Broadcast()
}

// Flush blocks until every event published so far has been delivered.
// It must not be called from an observer.
func (h *Hub) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.queue) > 0 || h.busy {
		h.cond.Wait()
	}
}

// Close delivers the remaining events and stops the loop
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		h.cond.Broadcast()
	}
	h.mu.Unlock()
	<-h.stopped
}

func (h *Hub) loop() {
	defer close(h.stopped)
	for {
		h.mu.Lock()
		for len(h.queue) == 0 && !h.closed {
			h.cond.Wait()
		}
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return
		}
		ev := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]
		h.busy = true
		h.mu.Unlock()

		for _, o := range h.Snapshot() {
			h.deliver(o, ev)
		}

		h.mu.Lock()
		h.busy = false
		h.cond.Broadcast()
		h.mu.Unlock()
	}
}

func (h *Hub) deliver(o domain.Observer, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("observer panicked", "event", eventName(ev), "panic", r)
		}
	}()
	o.Notify(ev)
}
