package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	requests  []int
	cancelled []string
	cached    map[int][]*domain.Video
}

func (c *fakeCatalog) VideosIn(op domain.Op, scope domain.Scope, query string, page int) string {
	c.requests = append(c.requests, page)
	return fmt.Sprintf("req-%d", len(c.requests))
}

func (c *fakeCatalog) CachedPage(scope domain.Scope, query string, page int) ([]*domain.Video, bool) {
	v, ok := c.cached[page]
	return v, ok
}

func (c *fakeCatalog) Cancel(requestID string) bool {
	c.cancelled = append(c.cancelled, requestID)
	return true
}

type fakeDownloads struct {
	started []uint64
	err     error
}

func (d *fakeDownloads) Start(v *domain.Video) error {
	if d.err != nil {
		return d.err
	}
	d.started = append(d.started, v.ID)
	return nil
}

func (d *fakeDownloads) Cancel(v *domain.Video) bool  { return false }
func (d *fakeDownloads) Delete(v *domain.Video) error { return nil }

type fakeEngagement struct {
	err error
}

func (e *fakeEngagement) ToggleStar(v *domain.Video) error { return e.err }

type fakePlayer struct {
	played []uint64
}

func (p *fakePlayer) Play(ctx context.Context, v *domain.Video, at time.Duration) error {
	p.played = append(p.played, v.ID)
	return nil
}

type harness struct {
	catalog    *fakeCatalog
	downloads  *fakeDownloads
	engagement *fakeEngagement
	player     *fakePlayer
}

func newTestModel(t *testing.T) (Model, *harness) {
	t.Helper()
	h := &harness{
		catalog:    &fakeCatalog{cached: map[int][]*domain.Video{}},
		downloads:  &fakeDownloads{},
		engagement: &fakeEngagement{},
		player:     &fakePlayer{},
	}
	m := NewModel(Services{
		Catalog:    h.catalog,
		Downloads:  h.downloads,
		Engagement: h.engagement,
		Player:     h.player,
	}, make(chan domain.Event), Listing{Title: "All videos"})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	return m, h
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func videoPage(current, count int, titles ...string) *domain.Page[domain.Video] {
	items := make([]domain.Video, len(titles))
	for i, title := range titles {
		items[i] = domain.Video{ID: uint64(current*100 + i), Title: title, Stars: 1}
	}
	next := 0
	if current < count {
		next = current + 1
	}
	return &domain.Page[domain.Video]{Items: items, CurrentPage: current, NextPage: next, PageCount: count, Total: count * len(titles)}
}

func loaded(t *testing.T, m Model, page *domain.Page[domain.Video]) Model {
	t.Helper()
	m = update(t, m, loadPageMsg{page: page.CurrentPage})
	return update(t, m, EventMsg{Event: domain.ListResult[domain.Video]{RequestID: m.pendingID, Op: domain.OpVideos, Page: page}})
}

func TestModel_LoadsFirstPage(t *testing.T) {
	m, h := newTestModel(t)

	m = update(t, m, loadPageMsg{page: 1})
	assert.True(t, m.Loading)
	assert.Equal(t, []int{1}, h.catalog.requests)

	m = update(t, m, EventMsg{Event: domain.ListResult[domain.Video]{RequestID: "req-1", Page: videoPage(1, 3, "Everest", "Coral Reef")}})
	assert.False(t, m.Loading)
	assert.Len(t, m.Matches, 2)
	assert.Equal(t, 1, m.PageNum)
	assert.Equal(t, 2, m.NextPage)
	assert.Contains(t, m.View(), "Everest")
	assert.Contains(t, m.View(), "page 1/3")
}

func TestModel_IgnoresStaleResults(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, loadPageMsg{page: 1})

	m = update(t, m, EventMsg{Event: domain.ListResult[domain.Video]{RequestID: "other", Page: videoPage(1, 1, "Stale")}})
	assert.True(t, m.Loading)
	assert.Empty(t, m.Videos)
}

func TestModel_ShowsCachedPageWhileLoading(t *testing.T) {
	m, h := newTestModel(t)
	h.catalog.cached[1] = []*domain.Video{{ID: 7, Title: "Cached"}}

	m = update(t, m, loadPageMsg{page: 1})
	assert.True(t, m.Loading)
	assert.True(t, m.FromCache)
	require.Len(t, m.Matches, 1)
	assert.Equal(t, "Cached", m.Matches[0].Video.Title)
}

func TestModel_LoadErrorKeepsList(t *testing.T) {
	m, _ := newTestModel(t)
	m = loaded(t, m, videoPage(1, 2, "Everest"))

	m = press(t, m, "n")
	m = update(t, m, EventMsg{Event: domain.ListResult[domain.Video]{
		RequestID: m.pendingID,
		Err:       domain.NetworkError("list", errors.New("offline")),
	}})
	assert.False(t, m.Loading)
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "loading page 2")
	assert.Len(t, m.Matches, 1)
}

func TestModel_Paging(t *testing.T) {
	m, h := newTestModel(t)
	m = loaded(t, m, videoPage(1, 2, "A", "B"))

	m = press(t, m, "p")
	assert.Equal(t, []int{1}, h.catalog.requests, "no page before the first")

	m = press(t, m, "n")
	assert.Equal(t, []int{1, 2}, h.catalog.requests)

	// A second request supersedes the first
	m = press(t, m, "r")
	assert.Equal(t, []string{"req-2"}, h.catalog.cancelled)
	assert.True(t, m.Loading)
}

func TestModel_Filter(t *testing.T) {
	m, _ := newTestModel(t)
	m = loaded(t, m, videoPage(1, 1, "Everest Summit", "Coral Reef", "Northern Lights"))

	m = press(t, m, "/")
	assert.Equal(t, StateFiltering, m.State)
	m = press(t, m, "reef")
	require.Len(t, m.Matches, 1)
	assert.Equal(t, "Coral Reef", m.Matches[0].Video.Title)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowsing, m.State)
	assert.Len(t, m.Matches, 1)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.Matches, 3)
}

func TestModel_CursorAndPlay(t *testing.T) {
	m, h := newTestModel(t)
	m = loaded(t, m, videoPage(1, 1, "A", "B", "C"))

	m = press(t, m, "j")
	m = press(t, m, "j")
	m = press(t, m, "j")
	assert.Equal(t, 2, m.Cursor)
	m = press(t, m, "g")
	assert.Equal(t, 0, m.Cursor)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, PlaybackStartedMsg{Video: next.(Model).Matches[0].Video}, msg)
	assert.Equal(t, []uint64{100}, h.player.played)
}

func TestModel_DownloadLifecycle(t *testing.T) {
	m, h := newTestModel(t)
	m = loaded(t, m, videoPage(1, 1, "Everest"))
	v := m.Matches[0].Video

	m = press(t, m, "d")
	assert.Equal(t, []uint64{v.ID}, h.downloads.started)
	assert.Contains(t, m.StatusMsg, "Queued")

	m = update(t, m, EventMsg{Event: domain.DownloadStarted{Video: v.Clone(), TotalBytes: 100}})
	assert.Equal(t, domain.Downloading, v.DownloadState)
	m = update(t, m, EventMsg{Event: domain.DownloadProgress{Video: v.Clone(), Written: 50, Total: 100}})
	assert.Contains(t, m.View(), "50%")

	done := v.Clone()
	done.DownloadState = domain.Downloaded
	done.LocalPath = "/tmp/1.mp4"
	m = update(t, m, EventMsg{Event: domain.DownloadFinished{Video: done}})
	assert.Empty(t, m.transfers)
	assert.Equal(t, domain.Downloaded, v.DownloadState)
	assert.Equal(t, "/tmp/1.mp4", v.LocalPath)

	m = update(t, m, EventMsg{Event: domain.DownloadDeleted{VideoID: v.ID}})
	assert.Equal(t, domain.NotDownloaded, v.DownloadState)
	assert.Empty(t, v.LocalPath)
}

func TestModel_DownloadRejected(t *testing.T) {
	m, h := newTestModel(t)
	h.downloads.err = domain.StateError("download", domain.ErrDownloadNotPermitted)
	m = loaded(t, m, videoPage(1, 1, "Everest"))

	m = press(t, m, "d")
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "not permitted")
}

func TestModel_StarRequiresLogin(t *testing.T) {
	m, h := newTestModel(t)
	h.engagement.err = domain.AuthError("star", domain.ErrNotLoggedIn)
	m = loaded(t, m, videoPage(1, 1, "Everest"))

	m = press(t, m, "s")
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "not logged in")
}

func TestModel_EngagementEvents(t *testing.T) {
	m, _ := newTestModel(t)
	m = loaded(t, m, videoPage(1, 1, "Everest"))
	v := m.Matches[0].Video

	snap := v.Clone()
	snap.Starred = true
	snap.Stars = 2
	m = update(t, m, EventMsg{Event: domain.EngagementChanged{Target: domain.TargetVideo, ID: v.ID, Phase: domain.PhaseOptimistic, Video: snap}})
	assert.True(t, v.Starred)
	assert.Equal(t, 2, v.Stars)

	m = update(t, m, EventMsg{Event: domain.EngagementChanged{
		Target: domain.TargetVideo,
		ID:     v.ID,
		Phase:  domain.PhaseRolledBack,
		Video:  &domain.Video{ID: v.ID, Stars: 1},
		Err:    domain.NetworkError("star", errors.New("timeout")),
	}})
	assert.False(t, v.Starred)
	assert.Equal(t, 1, v.Stars)
	assert.True(t, m.StatusIsErr)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, h := newTestModel(t)
	m = update(t, m, loadPageMsg{page: 1})

	m = press(t, m, "?")
	assert.Equal(t, StateHelp, m.State)
	assert.True(t, strings.Contains(m.View(), "download"))
	m = press(t, m, "x")
	assert.Equal(t, StateBrowsing, m.State)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, []string{"req-1"}, h.catalog.cancelled)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2<<20))
}
