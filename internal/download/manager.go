package download

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/metrics"
	"github.com/littlstar/lstar/internal/storage"
)

const (
	defaultProgressInterval = 250 * time.Millisecond
	defaultDeleteWorkers    = 4
	chunkSize               = 32 * 1024
)

// TaskInfo describes a transfer in progress
type TaskInfo struct {
	VideoID   uint64
	Title     string
	Written   int64
	Total     int64 // -1 until the stream declares a length
	StartedAt time.Time
}

type task struct {
	video     *domain.Video
	cancel    context.CancelFunc
	startedAt time.Time
	written   int64
	total     int64

	// cancelRequested wins only until finishing is set
	cancelRequested bool
	finishing       bool
}

// Option configures a Manager
type Option func(*Manager)

// WithProgressInterval sets the minimum gap between progress events
func WithProgressInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithDeleteWorkers bounds how many files DeleteAll removes at once
func WithDeleteWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.deleteWorkers = n
		}
	}
}

// Manager owns offline copies of videos: one transfer per video at a
// time, any number of videos in parallel. All outcomes are published as
// events from the transfer goroutine, so each video's events arrive in
// order: started, progress, then exactly one terminal event.
type Manager struct {
	streamer domain.Streamer
	files    *storage.Local
	records  domain.DownloadStore
	events   domain.Publisher
	logger   *slog.Logger

	interval      time.Duration
	deleteWorkers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	tasks    map[uint64]*task
	deleting map[uint64]bool
}

// NewManager creates a download manager
func NewManager(streamer domain.Streamer, files *storage.Local, records domain.DownloadStore, events domain.Publisher, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		streamer:      streamer,
		files:         files,
		records:       records,
		events:        events,
		logger:        logger,
		interval:      defaultProgressInterval,
		deleteWorkers: defaultDeleteWorkers,
		ctx:           ctx,
		cancel:        cancel,
		tasks:         make(map[uint64]*task),
		deleting:      make(map[uint64]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open reconciles persisted records with the files on disk. Records whose
// file is gone are dropped and leftover partial files are removed.
func (m *Manager) Open() error {
	recs, err := m.records.ListDownloads()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if m.files.Exists(rec.Path) {
			continue
		}
		m.logger.Warn("dropping download record without file", "videoID", rec.VideoID, "path", rec.Path)
		if err := m.records.DeleteDownload(rec.VideoID); err != nil {
			return err
		}
	}
	m.sweepOrphans()
	return nil
}

// Close cancels every transfer and waits for them to finish
func (m *Manager) Close() {
	m.CancelAll()
	m.cancel()
	m.wg.Wait()
}

// State returns the offline state of a video
func (m *Manager) State(id uint64) domain.DownloadState {
	state, _ := m.lookup(id)
	return state
}

// LocalPath returns the committed file for a downloaded video
func (m *Manager) LocalPath(id uint64) (string, bool) {
	state, path := m.lookup(id)
	return path, state == domain.Downloaded
}

// Annotate sets the download state and local path on v
func (m *Manager) Annotate(v *domain.Video) {
	if v == nil {
		return
	}
	v.DownloadState, v.LocalPath = m.lookup(v.ID)
}

func (m *Manager) lookup(id uint64) (domain.DownloadState, string) {
	m.mu.RLock()
	_, active := m.tasks[id]
	m.mu.RUnlock()
	if active {
		return domain.Downloading, ""
	}
	if rec, ok := m.records.GetDownload(id); ok && m.files.Exists(rec.Path) {
		return domain.Downloaded, rec.Path
	}
	return domain.NotDownloaded, ""
}

// Tasks lists active transfers, oldest first
func (m *Manager) Tasks() []TaskInfo {
	m.mu.RLock()
	out := make([]TaskInfo, 0, len(m.tasks))
	for id, t := range m.tasks {
		out = append(out, TaskInfo{
			VideoID:   id,
			Title:     t.video.Title,
			Written:   t.written,
			Total:     t.total,
			StartedAt: t.startedAt,
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].VideoID < out[j].VideoID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Downloaded lists the records whose files are present
func (m *Manager) Downloaded() ([]domain.DownloadRecord, error) {
	recs, err := m.records.ListDownloads()
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if m.files.Exists(rec.Path) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Start begins downloading v in the background
func (m *Manager) Start(v *domain.Video) error {
	if !v.Download {
		err := domain.StateError("download", domain.ErrDownloadNotPermitted)
		m.events.Publish(domain.DownloadFailed{Video: v.Clone(), Err: err})
		return err
	}

	m.mu.Lock()
	if _, ok := m.tasks[v.ID]; ok {
		m.mu.Unlock()
		return domain.StateError("download", domain.ErrAlreadyDownloading)
	}
	if m.deleting[v.ID] {
		m.mu.Unlock()
		return domain.StateError("download", domain.ErrDeleteInProgress)
	}
	if rec, ok := m.records.GetDownload(v.ID); ok && m.files.Exists(rec.Path) {
		m.mu.Unlock()
		m.logger.Debug("already downloaded", "videoID", v.ID, "path", rec.Path)
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	t := &task{
		video:     v.Clone(),
		cancel:    cancel,
		startedAt: time.Now(),
		total:     -1,
	}
	t.video.DownloadState = domain.Downloading
	t.video.LocalPath = ""
	m.tasks[v.ID] = t
	m.mu.Unlock()

	metrics.ActiveDownloads.Inc()
	m.logger.Info("download started", "videoID", v.ID, "title", v.Title)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.transfer(ctx, t)
	}()
	return nil
}

// Cancel stops the transfer for v. It reports false when there was
// nothing to cancel or the transfer is already being committed.
func (m *Manager) Cancel(v *domain.Video) bool {
	return m.cancelID(v.ID)
}

func (m *Manager) cancelID(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.finishing || t.cancelRequested {
		return false
	}
	t.cancelRequested = true
	t.cancel()
	return true
}

// CancelAll stops every active transfer
func (m *Manager) CancelAll() int {
	m.mu.RLock()
	ids := make([]uint64, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range ids {
		if m.cancelID(id) {
			n++
		}
	}
	return n
}

// retire publishes the terminal event and removes the task under one lock,
// so a restart of the same id cannot publish ahead of it
func (m *Manager) retire(t *task, final domain.Event) {
	m.mu.Lock()
	m.events.Publish(final)
	delete(m.tasks, t.video.ID)
	m.mu.Unlock()
	t.cancel()
	metrics.ActiveDownloads.Dec()
}
