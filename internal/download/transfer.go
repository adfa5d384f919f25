package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/metrics"
	"github.com/littlstar/lstar/internal/storage"
	"golang.org/x/time/rate"
)

var errOverrun = errors.New("stream is longer than its declared length")

// transfer runs one download to completion. Every exit path publishes
// exactly one terminal event and retires the task.
func (m *Manager) transfer(ctx context.Context, t *task) {
	v := t.video

	partial, err := m.files.Create(v.ID, storage.ExtFromURL(v.DownloadURL))
	if err != nil {
		m.fail(t, nil, err)
		return
	}
	defer partial.Close()

	body, total, err := m.streamer.Stream(ctx, v.DownloadURL)
	if err != nil {
		m.abort(t, partial, err)
		return
	}
	defer body.Close()

	m.mu.Lock()
	t.total = total
	m.mu.Unlock()
	m.events.Publish(domain.DownloadStarted{Video: v.Clone(), TotalBytes: total})

	written, err := m.copy(ctx, t, partial, body, total)
	if err != nil {
		m.abort(t, partial, err)
		return
	}
	if total >= 0 && written < total {
		m.abort(t, partial, domain.NetworkError("download", fmt.Errorf("received %d of %d bytes: %w", written, total, io.ErrUnexpectedEOF)))
		return
	}
	if total < 0 {
		total = written
	}

	// Past this point cancellation is ignored
	m.mu.Lock()
	if t.cancelRequested {
		m.mu.Unlock()
		m.cancelled(t, partial)
		return
	}
	t.finishing = true
	t.total = total
	m.mu.Unlock()

	m.events.Publish(domain.DownloadProgress{Video: v.Clone(), Written: written, Total: total})

	path, err := partial.Commit()
	if err != nil {
		m.fail(t, nil, err)
		return
	}

	rec := domain.DownloadRecord{
		VideoID:   v.ID,
		Path:      path,
		Size:      written,
		Title:     v.Title,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.records.SaveDownload(rec); err != nil {
		m.files.Remove(path)
		m.fail(t, nil, err)
		return
	}

	done := v.Clone()
	done.DownloadState = domain.Downloaded
	done.LocalPath = path
	m.retire(t, domain.DownloadFinished{Video: done})
	metrics.DownloadsTotal.WithLabelValues("finished").Inc()
	m.logger.Info("download finished", "videoID", v.ID, "path", path, "bytes", written, "duration", time.Since(t.startedAt))
}

// copy moves the stream into the partial file, checking for cancellation
// between chunks and reporting progress at most once per interval.
func (m *Manager) copy(ctx context.Context, t *task, dst io.Writer, src io.Reader, total int64) (int64, error) {
	progress := rate.Sometimes{First: 1, Interval: m.interval}
	buf := make([]byte, chunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if total >= 0 && written+int64(n) > total {
				return written, domain.NetworkError("download", errOverrun)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			metrics.DownloadBytesTotal.Add(float64(n))

			if !m.recordProgress(t, written) {
				return written, context.Canceled
			}
			if total < 0 || written < total {
				progress.Do(func() {
					m.events.Publish(domain.DownloadProgress{Video: t.video.Clone(), Written: written, Total: total})
				})
			}
		}

		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, domain.NetworkError("download", rerr)
		}
	}
}

// recordProgress stores the byte count and reports whether the task is still wanted
func (m *Manager) recordProgress(t *task, written int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.written = written
	return !t.cancelRequested
}

// abort ends a transfer that stopped early, as cancelled or failed
func (m *Manager) abort(t *task, partial *storage.Partial, err error) {
	m.mu.RLock()
	requested := t.cancelRequested
	m.mu.RUnlock()

	if requested {
		m.cancelled(t, partial)
		return
	}
	m.fail(t, partial, err)
}

func (m *Manager) cancelled(t *task, partial *storage.Partial) {
	if err := partial.Discard(); err != nil {
		m.logger.Warn("failed to discard partial file", "path", partial.Path(), "error", err)
	}
	v := t.video.Clone()
	v.DownloadState = domain.NotDownloaded
	m.retire(t, domain.DownloadCancelled{Video: v})
	metrics.DownloadsTotal.WithLabelValues("cancelled").Inc()
	m.logger.Info("download cancelled", "videoID", v.ID)
}

func (m *Manager) fail(t *task, partial *storage.Partial, err error) {
	if partial != nil {
		if derr := partial.Discard(); derr != nil {
			m.logger.Warn("failed to discard partial file", "path", partial.Path(), "error", derr)
		}
	}
	if domain.KindOf(err) == domain.KindUnknown {
		err = domain.StorageError("download", err)
	}
	v := t.video.Clone()
	v.DownloadState = domain.NotDownloaded
	m.retire(t, domain.DownloadFailed{Video: v, Err: err})
	metrics.DownloadsTotal.WithLabelValues("failed").Inc()
	m.logger.Error("download failed", "videoID", v.ID, "error", err)
}
