package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves a fixed catalog of videos
type fakeClient struct {
	domain.CatalogClient // Unused methods panic

	mu     sync.Mutex
	videos []domain.Video
	calls  int
	err    error
	block  chan struct{} // When set, list calls wait for it or ctx
}

func newFakeClient(n int) *fakeClient {
	f := &fakeClient{}
	for i := 1; i <= n; i++ {
		f.videos = append(f.videos, domain.Video{ID: uint64(i), Title: fmt.Sprintf("Video %d", i), Download: true})
	}
	return f
}

func (f *fakeClient) ListVideos(ctx context.Context, scope domain.Scope, q domain.ListQuery) (domain.Listing[domain.Video], error) {
	f.mu.Lock()
	f.calls++
	block, err := f.block, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.Listing[domain.Video]{}, domain.NetworkError("list videos", ctx.Err())
		}
	}
	if err != nil {
		return domain.Listing[domain.Video]{}, err
	}

	start := (q.Page - 1) * q.PerPage
	end := start + q.PerPage
	if start > len(f.videos) {
		start = len(f.videos)
	}
	if end > len(f.videos) {
		end = len(f.videos)
	}
	items := append([]domain.Video(nil), f.videos[start:end]...)
	return domain.Listing[domain.Video]{Items: items, Total: len(f.videos), PerPage: q.PerPage}, nil
}

func (f *fakeClient) GetVideo(ctx context.Context, id uint64) (*domain.Video, error) {
	for _, v := range f.videos {
		if v.ID == id {
			return v.Clone(), nil
		}
	}
	return nil, domain.NotFoundError("get video", domain.ErrItemNotFound)
}

func (f *fakeClient) PostComment(ctx context.Context, token string, videoID uint64, text string) (*domain.Comment, error) {
	return &domain.Comment{ID: 1, Text: text}, nil
}

func (f *fakeClient) Me(ctx context.Context, token string) (*domain.User, error) {
	return &domain.User{Slug: "me"}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

type chanPublisher chan domain.Event

func (c chanPublisher) Publish(ev domain.Event) { c <- ev }

func (c chanPublisher) next(t *testing.T) domain.Event {
	t.Helper()
	select {
	case ev := <-c:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (c chanPublisher) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-c:
		t.Fatalf("unexpected event %T", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

type downloadedAnnotator map[uint64]string

func (a downloadedAnnotator) Annotate(v *domain.Video) {
	if path, ok := a[v.ID]; ok {
		v.DownloadState = domain.Downloaded
		v.LocalPath = path
	}
}

type memCache struct {
	mu     sync.Mutex
	videos map[string][]*domain.Video
	ts     map[string]time.Time
}

func newMemCache() *memCache {
	return &memCache{videos: map[string][]*domain.Video{}, ts: map[string]time.Time{}}
}

func (m *memCache) GetVideos(scope string) ([]*domain.Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[scope]
	return v, ok
}

func (m *memCache) SaveVideos(scope string, videos []*domain.Video, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[scope] = videos
	m.ts[scope] = syncedAt
	return nil
}

func (m *memCache) SyncedAt(scope string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.ts[scope]
	return ts, ok
}

func (m *memCache) GetPhotos(string) ([]*domain.Photo, bool)           { return nil, false }
func (m *memCache) SavePhotos(string, []*domain.Photo, time.Time) error { return nil }
func (m *memCache) InvalidateScope(string)                              {}
func (m *memCache) InvalidateAll()                                      {}

func newTestDispatcher(client Client, opts ...Option) (*Dispatcher, chanPublisher) {
	events := make(chanPublisher, 64)
	d := New(client, staticToken(""), events, nil, append([]Option{WithPageSize(20)}, opts...)...)
	return d, events
}

func TestDispatcher_Lists(t *testing.T) {
	t.Run("first page of 45", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(45))
		defer d.Close()

		id := d.Videos(1)
		res := events.next(t).(domain.ListResult[domain.Video])

		assert.Equal(t, id, res.RequestID)
		assert.Equal(t, domain.OpVideos, res.Op)
		require.NoError(t, res.Err)
		assert.Len(t, res.Page.Items, 20)
		assert.Equal(t, 1, res.Page.CurrentPage)
		assert.Equal(t, 2, res.Page.NextPage)
		assert.Equal(t, 3, res.Page.PageCount)
		events.none(t)
	})

	t.Run("last page", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(45))
		defer d.Close()

		d.Videos(3)
		res := events.next(t).(domain.ListResult[domain.Video])
		require.NoError(t, res.Err)
		assert.Len(t, res.Page.Items, 5)
		assert.Equal(t, 0, res.Page.NextPage)
	})

	t.Run("empty catalog", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(0))
		defer d.Close()

		d.Videos(1)
		res := events.next(t).(domain.ListResult[domain.Video])
		require.NoError(t, res.Err)
		assert.Empty(t, res.Page.Items)
		assert.Equal(t, 0, res.Page.PageCount)
		assert.Equal(t, 0, res.Page.NextPage)
	})

	t.Run("page beyond the end", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(45))
		defer d.Close()

		d.Videos(9)
		res := events.next(t).(domain.ListResult[domain.Video])
		assert.Nil(t, res.Page)
		assert.True(t, errors.Is(res.Err, domain.ErrPageOutOfRange))
	})

	t.Run("failure delivers only the error", func(t *testing.T) {
		client := newFakeClient(5)
		client.err = domain.NetworkError("list videos", domain.ErrServerOffline)
		d, events := newTestDispatcher(client)
		defer d.Close()

		d.Videos(1)
		res := events.next(t).(domain.ListResult[domain.Video])
		assert.Nil(t, res.Page)
		assert.Equal(t, domain.KindNetwork, domain.KindOf(res.Err))
		assert.Equal(t, 1, client.callCount(), "dispatcher does not retry")
		events.none(t)
	})

	t.Run("videos carry download state", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(3), WithAnnotator(downloadedAnnotator{2: "/tmp/2.mp4"}))
		defer d.Close()

		d.Videos(1)
		res := events.next(t).(domain.ListResult[domain.Video])
		require.NoError(t, res.Err)
		assert.Equal(t, domain.NotDownloaded, res.Page.Items[0].DownloadState)
		assert.Equal(t, domain.Downloaded, res.Page.Items[1].DownloadState)
		assert.Equal(t, "/tmp/2.mp4", res.Page.Items[1].LocalPath)
	})

	t.Run("pages are cached", func(t *testing.T) {
		cache := newMemCache()
		d, events := newTestDispatcher(newFakeClient(25), WithCache(cache))
		defer d.Close()

		d.CategoryVideos("travel", 2)
		events.next(t)

		videos, ok := d.CachedPage(domain.CategoryScope("travel"), "", 2)
		require.True(t, ok)
		assert.Len(t, videos, 5)
	})
}

func TestDispatcher_Items(t *testing.T) {
	d, events := newTestDispatcher(newFakeClient(3))
	defer d.Close()

	t.Run("video by id", func(t *testing.T) {
		d.Video(2)
		res := events.next(t).(domain.ItemResult[domain.Video])
		require.NoError(t, res.Err)
		assert.Equal(t, uint64(2), res.Item.ID)
	})

	t.Run("refresh", func(t *testing.T) {
		d.RefreshVideo(&domain.Video{ID: 3})
		res := events.next(t).(domain.ItemResult[domain.Video])
		assert.Equal(t, domain.OpRefreshVideo, res.Op)
		assert.Equal(t, uint64(3), res.Item.ID)
	})

	t.Run("missing video", func(t *testing.T) {
		d.Video(99)
		res := events.next(t).(domain.ItemResult[domain.Video])
		assert.Nil(t, res.Item)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(res.Err))
	})

	t.Run("comment needs login", func(t *testing.T) {
		d.PostComment(1, "nice")
		res := events.next(t).(domain.ItemResult[domain.Comment])
		assert.True(t, errors.Is(res.Err, domain.ErrNotLoggedIn))
	})

	t.Run("notifications need login", func(t *testing.T) {
		d.Notifications(1)
		res := events.next(t).(domain.ListResult[domain.Notification])
		assert.Equal(t, domain.KindAuthentication, domain.KindOf(res.Err))
	})
}

func TestDispatcher_Cancel(t *testing.T) {
	t.Run("cancelled request publishes nothing", func(t *testing.T) {
		client := newFakeClient(5)
		client.block = make(chan struct{})
		d, events := newTestDispatcher(client)
		defer d.Close()

		id := d.Videos(1)
		assert.True(t, d.Cancel(id))
		assert.False(t, d.Cancel(id), "second cancel is a no-op")

		events.none(t)
		assert.Equal(t, 0, d.Pending())
	})

	t.Run("cancel after completion reports false", func(t *testing.T) {
		d, events := newTestDispatcher(newFakeClient(5))
		defer d.Close()

		id := d.Videos(1)
		events.next(t)
		assert.False(t, d.Cancel(id))
	})

	t.Run("close cancels everything", func(t *testing.T) {
		client := newFakeClient(5)
		client.block = make(chan struct{})
		d, events := newTestDispatcher(client)

		d.Videos(1)
		d.Videos(2)
		d.Close()

		events.none(t)
		assert.Equal(t, 0, d.Pending())
	})
}

func TestDispatcher_Concurrent(t *testing.T) {
	d, events := newTestDispatcher(newFakeClient(100))
	defer d.Close()

	ids := make(map[string]bool)
	for i := 0; i < 40; i++ {
		ids[d.Videos(i%5+1)] = true
	}

	for i := 0; i < 40; i++ {
		res := events.next(t).(domain.ListResult[domain.Video])
		require.NoError(t, res.Err)
		require.True(t, ids[res.RequestID], "unknown or duplicate result")
		delete(ids, res.RequestID)
	}
	events.none(t)
}

func TestDispatcher_Sync(t *testing.T) {
	t.Run("walks every page", func(t *testing.T) {
		cache := newMemCache()
		client := newFakeClient(45)
		d, events := newTestDispatcher(client, WithCache(cache))
		defer d.Close()

		id := d.SyncVideos(domain.AllScope(), false)

		var last domain.SyncProgress
		loaded := []int{}
		for !last.Done && last.Err == nil {
			last = events.next(t).(domain.SyncProgress)
			assert.Equal(t, id, last.RequestID)
			loaded = append(loaded, last.Loaded)
		}
		assert.Equal(t, []int{20, 40, 45, 45}, loaded)
		assert.Equal(t, 3, client.callCount())

		videos, ok := d.CachedVideos(domain.AllScope())
		require.True(t, ok)
		assert.Len(t, videos, 45)
	})

	t.Run("fresh cache skips the network", func(t *testing.T) {
		cache := newMemCache()
		client := newFakeClient(5)
		d, events := newTestDispatcher(client, WithCache(cache))
		defer d.Close()

		d.SyncVideos(domain.AllScope(), false)
		for !events.next(t).(domain.SyncProgress).Done {
		}
		calls := client.callCount()

		d.SyncVideos(domain.AllScope(), false)
		ev := events.next(t).(domain.SyncProgress)
		assert.True(t, ev.Done)
		assert.True(t, ev.FromCache)
		assert.Equal(t, calls, client.callCount())
	})

	t.Run("failure ends with error", func(t *testing.T) {
		client := newFakeClient(5)
		client.err = domain.NetworkError("list videos", domain.ErrServerOffline)
		d, events := newTestDispatcher(client)
		defer d.Close()

		d.SyncVideos(domain.AllScope(), true)
		ev := events.next(t).(domain.SyncProgress)
		assert.False(t, ev.Done)
		assert.Error(t, ev.Err)
	})
}
