package catalog

import (
	"context"
	"time"

	"github.com/littlstar/lstar/internal/domain"
)

// fetchAll walks every page of a listing.
func fetchAll[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page int) (domain.Listing[T], error),
	onProgress domain.ProgressFunc,
) ([]T, error) {
	var all []T
	page := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		l, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}

		all = append(all, l.Items...)

		if onProgress != nil {
			onProgress(len(all), l.Total)
		}

		if len(all) >= l.Total || len(l.Items) == 0 {
			break
		}
		page++
	}

	return all, nil
}

// SyncVideos downloads every page of a video listing into the cache.
// Progress arrives as SyncProgress events; the last one has Done or Err set.
// A listing synchronized within the TTL is served from cache unless force is set.
func (d *Dispatcher) SyncVideos(scope domain.Scope, force bool) string {
	key := scope.String()
	return d.submit(domain.OpVideos, func(ctx context.Context, id string) {
		if !force && d.cache != nil {
			if syncedAt, ok := d.cache.SyncedAt(key); ok && time.Since(syncedAt) < d.syncTTL {
				if videos, ok := d.cache.GetVideos(key); ok {
					d.logger.Debug("sync served from cache", "scope", key, "count", len(videos))
					d.emit(id, domain.SyncProgress{
						RequestID: id, Scope: key, Loaded: len(videos), Total: len(videos), Done: true, FromCache: true,
					}, true)
					return
				}
			}
		}

		start := time.Now()
		videos, err := fetchAll(ctx, func(ctx context.Context, page int) (domain.Listing[domain.Video], error) {
			return d.client.ListVideos(ctx, scope, domain.ListQuery{Page: page, PerPage: d.pageSize})
		}, func(loaded, total int) {
			d.emit(id, domain.SyncProgress{RequestID: id, Scope: key, Loaded: loaded, Total: total}, false)
		})
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Error("sync failed", "scope", key, "error", err)
			}
			d.emit(id, domain.SyncProgress{RequestID: id, Scope: key, Err: err}, true)
			return
		}

		ptrs := make([]*domain.Video, len(videos))
		for i := range videos {
			d.annotate(&videos[i])
			ptrs[i] = &videos[i]
		}
		if d.cache != nil {
			if err := d.cache.SaveVideos(key, ptrs, time.Now()); err != nil {
				d.emit(id, domain.SyncProgress{RequestID: id, Scope: key, Err: domain.StorageError("sync", err)}, true)
				return
			}
		}

		d.logger.Info("sync complete", "scope", key, "count", len(videos), "duration", time.Since(start))
		d.emit(id, domain.SyncProgress{
			RequestID: id, Scope: key, Loaded: len(videos), Total: len(videos), Done: true,
		}, true)
	})
}

// CachedVideos returns a synchronized listing without touching the network
func (d *Dispatcher) CachedVideos(scope domain.Scope) ([]*domain.Video, bool) {
	if d.cache == nil {
		return nil, false
	}
	videos, ok := d.cache.GetVideos(scope.String())
	if ok {
		for _, v := range videos {
			d.annotate(v)
		}
	}
	return videos, ok
}

// CachedPage returns a previously fetched page of videos, for offline browsing
func (d *Dispatcher) CachedPage(scope domain.Scope, query string, page int) ([]*domain.Video, bool) {
	if d.cache == nil {
		return nil, false
	}
	videos, ok := d.cache.GetVideos(pageKey(scope, query, domain.NormalizePage(page)))
	if ok {
		for _, v := range videos {
			d.annotate(v)
		}
	}
	return videos, ok
}
