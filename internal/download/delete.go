package download

import (
	"github.com/littlstar/lstar/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Delete removes the offline copy of v in the background and publishes
// DownloadDeleted. A video that is still downloading is refused at once.
func (m *Manager) Delete(v *domain.Video) error {
	if err := m.claim(v.ID); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.deleteClaimed(v.ID)
	}()
	return nil
}

// DeleteAll removes the given videos, or every recorded download when none
// are given. One DownloadDeleted is published per video. Partial files not
// owned by an active transfer are removed as well.
func (m *Manager) DeleteAll(videos ...*domain.Video) error {
	var ids []uint64
	if len(videos) == 0 {
		recs, err := m.records.ListDownloads()
		if err != nil {
			return err
		}
		for _, rec := range recs {
			ids = append(ids, rec.VideoID)
		}
	} else {
		for _, v := range videos {
			ids = append(ids, v.ID)
		}
	}

	var claimed []uint64
	for _, id := range ids {
		if err := m.claim(id); err != nil {
			m.events.Publish(domain.DownloadDeleted{VideoID: id, Err: err})
			continue
		}
		claimed = append(claimed, id)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		var g errgroup.Group
		g.SetLimit(m.deleteWorkers)
		for _, id := range claimed {
			g.Go(func() error {
				m.deleteClaimed(id)
				return nil
			})
		}
		g.Wait()
		m.sweepOrphans()
	}()
	return nil
}

// claim marks id as being deleted, refusing active transfers
func (m *Manager) claim(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; ok {
		return domain.StateError("delete", domain.ErrDeleteWhileDownloading)
	}
	if m.deleting[id] {
		return domain.StateError("delete", domain.ErrDeleteInProgress)
	}
	m.deleting[id] = true
	return nil
}

func (m *Manager) deleteClaimed(id uint64) {
	err := m.remove(id)

	m.mu.Lock()
	delete(m.deleting, id)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to delete download", "videoID", id, "error", err)
	} else {
		m.logger.Info("download deleted", "videoID", id)
	}
	m.events.Publish(domain.DownloadDeleted{VideoID: id, Err: err})
}

// remove drops the file, any partial files and the record for id
func (m *Manager) remove(id uint64) error {
	if orphans, err := m.files.Orphans(id); err == nil {
		for _, path := range orphans {
			m.files.Remove(path)
		}
	}

	rec, ok := m.records.GetDownload(id)
	if !ok {
		return domain.StorageError("delete", domain.ErrLocalFileMissing)
	}

	// The record goes even when the file was already gone
	ferr := m.files.Remove(rec.Path)
	if err := m.records.DeleteDownload(id); err != nil {
		return err
	}
	return ferr
}

// sweepOrphans removes partial files whose video has no active transfer.
// The lock is held throughout so a new transfer cannot create a partial
// file that the sweep then removes.
func (m *Manager) sweepOrphans() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all, err := m.files.AllOrphans()
	if err != nil {
		m.logger.Warn("failed to list partial files", "error", err)
		return
	}
	for id, paths := range all {
		if _, active := m.tasks[id]; active {
			continue
		}
		for _, path := range paths {
			if err := m.files.Remove(path); err != nil {
				m.logger.Warn("failed to remove partial file", "path", path, "error", err)
			}
		}
	}
}
