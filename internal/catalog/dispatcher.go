package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/littlstar/lstar/internal/domain"
)

const defaultSyncTTL = time.Hour

// Client is the part of the media service the dispatcher talks to
type Client interface {
	domain.CatalogClient
	Me(ctx context.Context, token string) (*domain.User, error)
}

// Annotator fills in local download state on fetched videos
type Annotator interface {
	Annotate(v *domain.Video)
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithCache stores fetched listings for offline use
func WithCache(c domain.CatalogCache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithAnnotator decorates videos with their download state
func WithAnnotator(a Annotator) Option {
	return func(d *Dispatcher) { d.annotator = a }
}

// WithPageSize sets the page size requested from the service
func WithPageSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.pageSize = n
		}
	}
}

// WithSyncTTL sets how long a synchronized listing counts as fresh
func WithSyncTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) { d.syncTTL = ttl }
}

// Dispatcher issues catalog requests without blocking the caller.
//
// Every verb returns a request ID at once. The outcome arrives later as a
// single ListResult or ItemResult event, unless the request is cancelled
// first, in which case nothing is published for it.
type Dispatcher struct {
	client    Client
	tokens    domain.TokenSource
	events    domain.Publisher
	cache     domain.CatalogCache
	annotator Annotator
	pageSize  int
	syncTTL   time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// New creates a dispatcher. tokens supplies the bearer token for
// requests that need a signed-in user.
func New(client Client, tokens domain.TokenSource, events domain.Publisher, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		client:   client,
		tokens:   tokens,
		events:   events,
		pageSize: domain.DefaultPageSize,
		syncTTL:  defaultSyncTTL,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cancel stops an in-flight request. It reports false if the request
// already completed or was never issued.
func (d *Dispatcher) Cancel(requestID string) bool {
	d.mu.Lock()
	cancel, ok := d.inflight[requestID]
	if ok {
		delete(d.inflight, requestID)
	}
	d.mu.Unlock()

	if ok {
		cancel()
		d.logger.Debug("request cancelled", "requestID", requestID)
	}
	return ok
}

// Pending returns the number of requests still in flight
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Close cancels every in-flight request and waits for the workers to exit
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for id, cancel := range d.inflight {
		cancel()
		delete(d.inflight, id)
	}
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}

// submit runs fn on its own goroutine under a cancellable context
func (d *Dispatcher) submit(op domain.Op, fn func(ctx context.Context, id string)) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(d.ctx)

	d.mu.Lock()
	d.inflight[id] = cancel
	d.mu.Unlock()

	d.logger.Debug("request issued", "op", op, "requestID", id)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(ctx, id)
	}()
	return id
}

// emit publishes ev if the request is still live. A final event retires the
// request so that nothing else can be published for it.
func (d *Dispatcher) emit(id string, ev domain.Event, final bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cancel, ok := d.inflight[id]
	if !ok {
		return false
	}
	if final {
		delete(d.inflight, id)
		cancel()
	}
	d.events.Publish(ev)
	return true
}

func (d *Dispatcher) token() string {
	if d.tokens == nil {
		return ""
	}
	return d.tokens.Token()
}

// list issues a paginated request
func list[T any](d *Dispatcher, op domain.Op, page int, fetch func(context.Context, domain.ListQuery) (domain.Listing[T], error), after func(*domain.Page[T])) string {
	return d.submit(op, func(ctx context.Context, id string) {
		q := domain.ListQuery{Page: domain.NormalizePage(page), PerPage: d.pageSize}

		l, err := fetch(ctx, q)
		var p *domain.Page[T]
		if err == nil {
			p, err = domain.PageFromListing(l, page, d.pageSize)
		}
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Error("request failed", "op", op, "requestID", id, "error", err)
			}
			d.emit(id, domain.ListResult[T]{RequestID: id, Op: op, Err: err}, true)
			return
		}

		if after != nil {
			after(p)
		}
		d.emit(id, domain.ListResult[T]{RequestID: id, Op: op, Page: p}, true)
	})
}

// item issues a single-item request
func item[T any](d *Dispatcher, op domain.Op, fetch func(context.Context) (*T, error), after func(*T)) string {
	return d.submit(op, func(ctx context.Context, id string) {
		v, err := fetch(ctx)
		if err == nil && v == nil {
			err = domain.NotFoundError(string(op), domain.ErrItemNotFound)
		}
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Error("request failed", "op", op, "requestID", id, "error", err)
			}
			d.emit(id, domain.ItemResult[T]{RequestID: id, Op: op, Err: err}, true)
			return
		}

		if after != nil {
			after(v)
		}
		d.emit(id, domain.ItemResult[T]{RequestID: id, Op: op, Item: v}, true)
	})
}
