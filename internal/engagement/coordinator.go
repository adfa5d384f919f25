package engagement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/littlstar/lstar/internal/domain"
)

// entry tracks one item's local and confirmed state.
// tail is closed once the most recently queued request has finished.
type entry[T any] struct {
	seq       uint64
	pending   int
	current   *T
	confirmed *T
	tail      chan struct{}
}

// kind bundles the per-type operations a toggle needs
type kind[T any] struct {
	target domain.EngagementTarget
	op     string
	clone  func(*T) *T
	// flip inverts the flag in place and returns the value to send
	flip func(*T) bool
	send func(ctx context.Context, token string, id uint64, on bool) (*T, error)
	wrap func(ev *domain.EngagementChanged, item *T)
}

// Coordinator applies star, downvote and follow toggles optimistically
// and reconciles them with the service in the order they were issued.
type Coordinator struct {
	client domain.EngagementClient
	tokens domain.TokenSource
	events domain.Publisher
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	videos map[uint64]*entry[domain.Video]
	photos map[uint64]*entry[domain.Photo]
	users  map[uint64]*entry[domain.User]
}

// New creates a coordinator
func New(client domain.EngagementClient, tokens domain.TokenSource, events domain.Publisher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		client: client,
		tokens: tokens,
		events: events,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		videos: make(map[uint64]*entry[domain.Video]),
		photos: make(map[uint64]*entry[domain.Photo]),
		users:  make(map[uint64]*entry[domain.User]),
	}
}

// Close abandons queued requests and waits for running ones to return
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// ToggleStar stars or unstars a video
func (c *Coordinator) ToggleStar(v *domain.Video) error {
	return toggle(c, c.videos, v.ID, v, videoKind("star", c.client.SetVideoStar, func(v *domain.Video) bool {
		v.Starred = !v.Starred
		v.Stars = bump(v.Stars, v.Starred)
		return v.Starred
	}))
}

// ToggleDownvote adds or removes a downvote on a video
func (c *Coordinator) ToggleDownvote(v *domain.Video) error {
	return toggle(c, c.videos, v.ID, v, videoKind("downvote", c.client.SetVideoDownvote, func(v *domain.Video) bool {
		v.Downvoted = !v.Downvoted
		v.Downvotes = bump(v.Downvotes, v.Downvoted)
		return v.Downvoted
	}))
}

// ToggleStarPhoto stars or unstars a photo
func (c *Coordinator) ToggleStarPhoto(p *domain.Photo) error {
	return toggle(c, c.photos, p.ID, p, photoKind("star photo", c.client.SetPhotoStar, func(p *domain.Photo) bool {
		p.Starred = !p.Starred
		p.Stars = bump(p.Stars, p.Starred)
		return p.Starred
	}))
}

// ToggleDownvotePhoto adds or removes a downvote on a photo
func (c *Coordinator) ToggleDownvotePhoto(p *domain.Photo) error {
	return toggle(c, c.photos, p.ID, p, photoKind("downvote photo", c.client.SetPhotoDownvote, func(p *domain.Photo) bool {
		p.Downvoted = !p.Downvoted
		p.Downvotes = bump(p.Downvotes, p.Downvoted)
		return p.Downvoted
	}))
}

// ToggleFollow follows or unfollows a user
func (c *Coordinator) ToggleFollow(u *domain.User) error {
	return toggle(c, c.users, u.ID, u, kind[domain.User]{
		target: domain.TargetUser,
		op:     "follow",
		clone:  (*domain.User).Clone,
		flip: func(u *domain.User) bool {
			u.Following = !u.Following
			u.FollowersCount = bump(u.FollowersCount, u.Following)
			return u.Following
		},
		send: c.client.SetFollow,
		wrap: func(ev *domain.EngagementChanged, u *domain.User) { ev.User = u },
	})
}

// Video returns the local snapshot of a toggled video
func (c *Coordinator) Video(id uint64) (*domain.Video, bool) {
	return snapshot(c, c.videos, id, (*domain.Video).Clone)
}

// Photo returns the local snapshot of a toggled photo
func (c *Coordinator) Photo(id uint64) (*domain.Photo, bool) {
	return snapshot(c, c.photos, id, (*domain.Photo).Clone)
}

// User returns the local snapshot of a toggled user
func (c *Coordinator) User(id uint64) (*domain.User, bool) {
	return snapshot(c, c.users, id, (*domain.User).Clone)
}

func videoKind(op string, send func(context.Context, string, uint64, bool) (*domain.Video, error), flip func(*domain.Video) bool) kind[domain.Video] {
	return kind[domain.Video]{
		target: domain.TargetVideo,
		op:     op,
		clone:  (*domain.Video).Clone,
		flip:   flip,
		send:   send,
		wrap:   func(ev *domain.EngagementChanged, v *domain.Video) { ev.Video = v },
	}
}

func photoKind(op string, send func(context.Context, string, uint64, bool) (*domain.Photo, error), flip func(*domain.Photo) bool) kind[domain.Photo] {
	return kind[domain.Photo]{
		target: domain.TargetPhoto,
		op:     op,
		clone:  (*domain.Photo).Clone,
		flip:   flip,
		send:   send,
		wrap:   func(ev *domain.EngagementChanged, p *domain.Photo) { ev.Photo = p },
	}
}

// bump moves a counter one step in the direction of on, never below zero
func bump(n int, on bool) int {
	if on {
		return n + 1
	}
	if n > 0 {
		return n - 1
	}
	return 0
}

func toggle[T any](c *Coordinator, items map[uint64]*entry[T], id uint64, item *T, k kind[T]) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return domain.AuthError(k.op, domain.ErrNotLoggedIn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := items[id]
	if !ok {
		e = &entry[T]{}
		items[id] = e
	}
	if e.pending == 0 {
		// Nothing in flight, so the caller's copy is the freshest we know of
		e.current = k.clone(item)
		e.confirmed = k.clone(item)
	}

	on := k.flip(e.current)
	e.seq++
	e.pending++
	seq := e.seq
	prev := e.tail
	done := make(chan struct{})
	e.tail = done

	publish(c, k, id, domain.PhaseOptimistic, k.clone(e.current), nil)
	c.logger.Debug("toggle queued", "op", k.op, "id", id, "on", on, "seq", seq)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		if prev != nil {
			select {
			case <-prev:
			case <-c.ctx.Done():
			}
		}

		res, err := k.send(c.ctx, token, id, on)
		if err == nil && res == nil {
			err = domain.NetworkError(k.op, domain.ErrMalformedResponse)
		}
		settle(c, e, id, seq, res, err, k)
	}()
	return nil
}

func settle[T any](c *Coordinator, e *entry[T], id uint64, seq uint64, res *T, err error, k kind[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.pending--
	if err == nil {
		e.confirmed = k.clone(res)
	}

	if seq != e.seq {
		c.logger.Debug("stale toggle response", "op", k.op, "id", id, "seq", seq, "latest", e.seq, "error", err)
		return
	}

	if err != nil {
		c.logger.Error("failed to toggle", "op", k.op, "id", id, "error", err)
		e.current = k.clone(e.confirmed)
		publish(c, k, id, domain.PhaseRolledBack, k.clone(e.current), err)
		return
	}

	e.current = k.clone(res)
	publish(c, k, id, domain.PhaseConfirmed, k.clone(e.current), nil)
}

func snapshot[T any](c *Coordinator, items map[uint64]*entry[T], id uint64, clone func(*T) *T) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := items[id]
	if !ok || e.current == nil {
		return nil, false
	}
	return clone(e.current), true
}

func publish[T any](c *Coordinator, k kind[T], id uint64, phase domain.EngagementPhase, item *T, err error) {
	ev := domain.EngagementChanged{Target: k.target, ID: id, Phase: phase, Err: err}
	k.wrap(&ev, item)
	c.events.Publish(ev)
}
