// Package sdk wires the Littlstar client components into one handle.
package sdk

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/littlstar/lstar/internal/adapter"
	"github.com/littlstar/lstar/internal/adapter/source/littlstar"
	"github.com/littlstar/lstar/internal/catalog"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/download"
	"github.com/littlstar/lstar/internal/engagement"
	"github.com/littlstar/lstar/internal/notify"
	"github.com/littlstar/lstar/internal/playback"
	"github.com/littlstar/lstar/internal/session"
	"github.com/littlstar/lstar/internal/storage"
	"github.com/littlstar/lstar/internal/store"
)

type options struct {
	logger     *slog.Logger
	surface    domain.PlayerSurface
	httpClient *http.Client
	license    *adapter.License
}

// Option customizes New
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSurface replaces the external-player launcher
func WithSurface(s domain.PlayerSurface) Option {
	return func(o *options) { o.surface = s }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLicense uses an already loaded license instead of service.license_file
func WithLicense(l *adapter.License) Option {
	return func(o *options) { o.license = l }
}

// SDK owns every long-lived component. Observers registered on it receive
// all events: request results, login outcomes, toggles and downloads.
type SDK struct {
	Session    *session.Service
	Catalog    *catalog.Dispatcher
	Engagement *engagement.Coordinator
	Downloads  *download.Manager
	Playback   *playback.Service

	client *littlstar.Client
	hub    *notify.Hub
	store  *store.Store
	cancel context.CancelFunc
	logger *slog.Logger
}

// New validates the configuration against the license and builds the SDK.
// A stored token in cfg is restored as the signed-in session.
func New(cfg *adapter.Config, opts ...Option) (*SDK, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	lic := o.license
	if lic == nil && cfg.Service.LicenseFile != "" {
		var err error
		if lic, err = adapter.LoadLicense(cfg.Service.LicenseFile); err != nil {
			return nil, err
		}
	}
	if err := lic.ValidateBaseURL(cfg.Service.BaseURL); err != nil {
		logger.Error("base URL rejected by license", "url", cfg.Service.BaseURL, "error", err)
		return nil, err
	}

	st, err := store.Open(cfg.Cache.Dir, cfg.Service.BaseURL)
	if err != nil {
		return nil, err
	}
	files, err := storage.NewLocal(cfg.Downloads.Dir)
	if err != nil {
		st.Close()
		return nil, err
	}

	client := littlstar.NewClient(littlstar.Options{
		BaseURL:    cfg.Service.BaseURL,
		Timeout:    cfg.Service.Timeout,
		Retries:    cfg.Service.Retries,
		HTTPClient: o.httpClient,
	}, logger)

	hub := notify.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())

	sess := session.New(client.BaseURL())
	sessions := session.NewService(ctx, sess, client, hub, logger)
	if cfg.Auth.Token != "" {
		sessions.Restore(cfg.Auth.Token, &domain.User{Slug: cfg.Auth.Username})
	}

	downloads := download.NewManager(client, files, st, hub, logger,
		download.WithProgressInterval(cfg.Downloads.ProgressInterval))
	if err := downloads.Open(); err != nil {
		logger.Warn("failed to reconcile downloads", "error", err)
	}

	surface := o.surface
	if surface == nil {
		surface = adapter.NewLauncher(cfg.Player, logger)
	}

	s := &SDK{
		Session: sessions,
		Catalog: catalog.New(client, sess, hub, logger,
			catalog.WithCache(st),
			catalog.WithAnnotator(downloads),
			catalog.WithPageSize(cfg.Service.PageSize)),
		Engagement: engagement.New(client, sess, hub, logger),
		Downloads:  downloads,
		Playback:   playback.NewService(surface, downloads, logger),
		client:     client,
		hub:        hub,
		store:      st,
		cancel:     cancel,
		logger:     logger,
	}
	logger.Info("sdk ready", "url", client.BaseURL(), "persistent", st.Persistent(), "signedIn", sess.Authenticated())
	return s, nil
}

// Register adds an observer. Registering the same observer twice has no effect.
func (s *SDK) Register(o domain.Observer) {
	s.hub.Register(o)
}

func (s *SDK) Unregister(o domain.Observer) {
	s.hub.Unregister(o)
}

// Flush waits until every event published so far has been delivered
func (s *SDK) Flush() {
	s.hub.Flush()
}

// Cache exposes the listing cache, e.g. for clearing it
func (s *SDK) Cache() domain.CatalogCache {
	return s.store
}

// Close cancels outstanding work, delivers the remaining events and
// releases the store.
func (s *SDK) Close() error {
	s.cancel()
	s.Session.Close()
	s.Catalog.Close()
	s.Engagement.Close()
	s.Downloads.Close()
	s.hub.Close()
	return s.store.Close()
}
