package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/littlstar/lstar/internal/domain"
)

var errNothingPlaying = errors.New("nothing is playing")

// annotator reports where a video's offline copy lives (consumer-defined interface)
type annotator interface {
	Annotate(v *domain.Video)
}

// Service picks the best source for an item and drives the player surface
type Service struct {
	surface   domain.PlayerSurface
	downloads annotator
	logger    *slog.Logger

	mu      sync.Mutex
	current string // URL loaded on the surface
}

// NewService creates a playback service. downloads may be nil when offline
// copies are not available.
func NewService(surface domain.PlayerSurface, downloads annotator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		surface:   surface,
		downloads: downloads,
		logger:    logger,
	}
}

// Resolve returns the URL to play: the downloaded file when there is one,
// otherwise the remote stream.
func (s *Service) Resolve(v *domain.Video) string {
	c := v.Clone()
	if s.downloads != nil {
		s.downloads.Annotate(c)
	}
	return c.SourceURL()
}

// Play loads v and starts it at the given offset
func (s *Service) Play(ctx context.Context, v *domain.Video, at time.Duration) error {
	url := s.Resolve(v)
	if url == "" {
		return domain.ValidationError("play", errors.New("video has no stream URL"))
	}
	s.logger.Info("launching playback", "title", v.Title, "videoID", v.ID, "offset", at, "url", url)
	return s.start(ctx, url, at)
}

// PlayOffline plays only the downloaded copy of v
func (s *Service) PlayOffline(ctx context.Context, v *domain.Video, at time.Duration) error {
	c := v.Clone()
	if s.downloads != nil {
		s.downloads.Annotate(c)
	}
	if c.DownloadState != domain.Downloaded {
		return domain.StateError("play offline", domain.ErrNotDownloaded)
	}
	return s.start(ctx, c.SourceURL(), at)
}

// PlayPhoto shows a photo on the surface
func (s *Service) PlayPhoto(ctx context.Context, p *domain.Photo) error {
	if p.ImageURL == "" {
		return domain.ValidationError("play photo", errors.New("photo has no image URL"))
	}
	return s.start(ctx, p.ImageURL, 0)
}

func (s *Service) start(ctx context.Context, url string, at time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.surface.Load(ctx, url); err != nil {
		s.logger.Error("failed to load media", "url", url, "error", err)
		return err
	}
	s.current = url
	if err := s.surface.Play(at); err != nil {
		s.logger.Error("failed to start playback", "url", url, "error", err)
		return err
	}
	return nil
}

func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return domain.StateError("pause", errNothingPlaying)
	}
	return s.surface.Pause()
}

func (s *Service) Seek(to time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return domain.StateError("seek", errNothingPlaying)
	}
	return s.surface.Seek(to)
}

// Current returns the URL loaded on the surface, empty before the first Play
func (s *Service) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
