package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/search"
	"github.com/littlstar/lstar/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateHelp
)

// Catalog issues listing requests; results arrive as events
type Catalog interface {
	VideosIn(op domain.Op, scope domain.Scope, query string, page int) string
	CachedPage(scope domain.Scope, query string, page int) ([]*domain.Video, bool)
	Cancel(requestID string) bool
}

// Downloads manages offline copies
type Downloads interface {
	Start(v *domain.Video) error
	Cancel(v *domain.Video) bool
	Delete(v *domain.Video) error
}

// Engagement toggles stars
type Engagement interface {
	ToggleStar(v *domain.Video) error
}

// Player starts playback
type Player interface {
	Play(ctx context.Context, v *domain.Video, at time.Duration) error
}

// Services bundles what the browser drives
type Services struct {
	Catalog    Catalog
	Downloads  Downloads
	Engagement Engagement
	Player     Player
}

// Listing selects what the browser shows
type Listing struct {
	Op    domain.Op
	Scope domain.Scope
	Query string // Search text for search listings
	Title string
}

// transfer is the progress of one running download
type transfer struct {
	written int64
	total   int64 // -1 when unknown
}

func (t transfer) fraction() float64 {
	if t.total <= 0 {
		return 0
	}
	return float64(t.written) / float64(t.total)
}

// ChromeHeight is the header plus the footer
const ChromeHeight = 2

const statusTimeout = 3 * time.Second

// Model is the main Bubble Tea model for the browser
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	svc     Services
	events  <-chan domain.Event
	listing Listing

	// Data
	Videos  []*domain.Video
	Matches []search.Match
	Cursor  int

	// Pagination
	PageNum   int
	PageCount int
	NextPage  int
	Total     int
	FromCache bool

	pendingID   string
	pendingPage int

	filterInput textinput.Model
	transfers   map[uint64]transfer

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	SpinnerFrame int
}

// NewModel creates the browser. events must receive everything the
// SDK publishes, usually through a notify.ChannelObserver.
func NewModel(svc Services, events <-chan domain.Event, listing Listing) Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	if listing.Op == "" {
		listing.Op = domain.OpVideos
	}
	if listing.Title == "" {
		listing.Title = listing.Scope.String()
	}

	return Model{
		State:       StateBrowsing,
		svc:         svc,
		events:      events,
		listing:     listing,
		filterInput: ti,
		transfers:   make(map[uint64]transfer),
	}
}

// Init loads the first page
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadPageCmd(1),
		WaitForEventCmd(m.events),
		TickCmd(100*time.Millisecond),
	)
}

// loadPageCmd defers a page request to Update, since Init cannot change the model
func loadPageCmd(page int) tea.Cmd {
	return func() tea.Msg { return loadPageMsg{page: page} }
}

// loadPageMsg asks the model to request a page
type loadPageMsg struct {
	page int
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case loadPageMsg:
		m.loadPage(msg.page)
		return m, nil

	case EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, WaitForEventCmd(m.events))

	case TickMsg:
		if m.Loading || len(m.transfers) > 0 {
			m.SpinnerFrame++
		}
		return m, TickCmd(100 * time.Millisecond)

	case PlaybackStartedMsg:
		cmd := m.setStatus("Playing: "+msg.Video.Title, false)
		return m, cmd

	case ErrMsg:
		cmd := m.setStatus(msg.Error(), true)
		return m, cmd

	case StatusMsg:
		cmd := m.setStatus(msg.Message, msg.IsError)
		return m, cmd

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}
	return m, nil
}

func (m *Model) setStatus(message string, isError bool) tea.Cmd {
	m.StatusMsg = message
	m.StatusIsErr = isError
	return ClearStatusCmd(statusTimeout)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateFiltering:
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if m.pendingID != "" {
			m.svc.Catalog.Cancel(m.pendingID)
		}
		return m, tea.Quit

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.Home):
		m.Cursor = 0
	case key.Matches(msg, Keys.End):
		m.Cursor = max(len(m.Matches)-1, 0)

	case key.Matches(msg, Keys.NextPage):
		if m.NextPage != 0 {
			m.loadPage(m.NextPage)
		}
	case key.Matches(msg, Keys.PrevPage):
		if m.PageNum > 1 {
			m.loadPage(m.PageNum - 1)
		}
	case key.Matches(msg, Keys.Refresh):
		m.loadPage(max(m.PageNum, 1))

	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		cmd := m.filterInput.Focus()
		return m, cmd
	case key.Matches(msg, Keys.Escape):
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.refilter()
		}
	case key.Matches(msg, Keys.Help):
		m.State = StateHelp

	case key.Matches(msg, Keys.Play):
		if v := m.selected(); v != nil {
			return m, PlayCmd(m.svc.Player, v)
		}
	case key.Matches(msg, Keys.Download):
		if v := m.selected(); v != nil {
			if err := m.svc.Downloads.Start(v); err != nil {
				cmd := m.setStatus(ErrMsg{Err: err, Context: "download"}.Error(), true)
				return m, cmd
			}
			cmd := m.setStatus("Queued: "+v.Title, false)
			return m, cmd
		}
	case key.Matches(msg, Keys.Cancel):
		if v := m.selected(); v != nil && !m.svc.Downloads.Cancel(v) {
			cmd := m.setStatus("Not downloading: "+v.Title, true)
			return m, cmd
		}
	case key.Matches(msg, Keys.Delete):
		if v := m.selected(); v != nil {
			if err := m.svc.Downloads.Delete(v); err != nil {
				cmd := m.setStatus(ErrMsg{Err: err, Context: "delete"}.Error(), true)
				return m, cmd
			}
		}
	case key.Matches(msg, Keys.Star):
		if v := m.selected(); v != nil {
			if err := m.svc.Engagement.ToggleStar(v); err != nil {
				cmd := m.setStatus(ErrMsg{Err: err, Context: "star"}.Error(), true)
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filterInput.Blur()
		m.State = StateBrowsing
		return m, nil
	case tea.KeyEsc:
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.State = StateBrowsing
		m.refilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.refilter()
	m.Cursor = 0
	return m, cmd
}

// loadPage shows the cached copy of a page, if any, while the fresh copy loads
func (m *Model) loadPage(page int) {
	if m.pendingID != "" {
		m.svc.Catalog.Cancel(m.pendingID)
	}
	l := m.listing
	if cached, ok := m.svc.Catalog.CachedPage(l.Scope, l.Query, page); ok {
		m.setVideos(cached)
		m.PageNum = page
		m.FromCache = true
	}
	m.pendingPage = page
	m.pendingID = m.svc.Catalog.VideosIn(l.Op, l.Scope, l.Query, page)
	m.Loading = true
}

func (m *Model) handleEvent(ev domain.Event) tea.Cmd {
	switch ev := ev.(type) {
	case domain.ListResult[domain.Video]:
		if ev.RequestID != m.pendingID {
			return nil
		}
		m.pendingID = ""
		m.Loading = false
		if ev.Err != nil {
			return m.setStatus(ErrMsg{Err: ev.Err, Context: fmt.Sprintf("loading page %d", m.pendingPage)}.Error(), true)
		}
		p := ev.Page
		videos := make([]*domain.Video, len(p.Items))
		for i := range p.Items {
			videos[i] = &p.Items[i]
		}
		m.setVideos(videos)
		m.PageNum = p.CurrentPage
		m.PageCount = p.PageCount
		m.NextPage = p.NextPage
		m.Total = p.Total
		m.FromCache = false

	case domain.DownloadStarted:
		m.transfers[ev.Video.ID] = transfer{total: ev.TotalBytes}
		m.updateVideo(ev.Video.ID, func(v *domain.Video) { v.DownloadState = domain.Downloading })

	case domain.DownloadProgress:
		m.transfers[ev.Video.ID] = transfer{written: ev.Written, total: ev.Total}

	case domain.DownloadFinished:
		delete(m.transfers, ev.Video.ID)
		m.updateVideo(ev.Video.ID, func(v *domain.Video) {
			v.DownloadState = domain.Downloaded
			v.LocalPath = ev.Video.LocalPath
		})
		return m.setStatus("Downloaded: "+ev.Video.Title, false)

	case domain.DownloadCancelled:
		delete(m.transfers, ev.Video.ID)
		m.updateVideo(ev.Video.ID, clearDownload)
		return m.setStatus("Cancelled: "+ev.Video.Title, false)

	case domain.DownloadFailed:
		delete(m.transfers, ev.Video.ID)
		m.updateVideo(ev.Video.ID, clearDownload)
		return m.setStatus(ErrMsg{Err: ev.Err, Context: "download " + ev.Video.Title}.Error(), true)

	case domain.DownloadDeleted:
		if ev.Err != nil {
			return m.setStatus(ErrMsg{Err: ev.Err, Context: "delete"}.Error(), true)
		}
		m.updateVideo(ev.VideoID, clearDownload)

	case domain.EngagementChanged:
		if ev.Target != domain.TargetVideo || ev.Video == nil {
			return nil
		}
		snap := ev.Video
		m.updateVideo(ev.ID, func(v *domain.Video) {
			v.Stars = snap.Stars
			v.Starred = snap.Starred
			v.Downvotes = snap.Downvotes
			v.Downvoted = snap.Downvoted
		})
		if ev.Phase == domain.PhaseRolledBack {
			return m.setStatus(ErrMsg{Err: ev.Err, Context: "star"}.Error(), true)
		}

	case domain.LoggedOut:
		return m.setStatus("Signed out", false)
	}
	return nil
}

func clearDownload(v *domain.Video) {
	v.DownloadState = domain.NotDownloaded
	v.LocalPath = ""
}

func (m *Model) updateVideo(id uint64, fn func(*domain.Video)) {
	for _, v := range m.Videos {
		if v.ID == id {
			fn(v)
		}
	}
}

func (m *Model) setVideos(videos []*domain.Video) {
	m.Videos = videos
	m.refilter()
}

func (m *Model) refilter() {
	m.Matches = search.Filter(m.filterInput.Value(), m.Videos)
	if m.Cursor >= len(m.Matches) {
		m.Cursor = max(len(m.Matches)-1, 0)
	}
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	if m.Cursor >= len(m.Matches) {
		m.Cursor = len(m.Matches) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) selected() *domain.Video {
	if m.Cursor < 0 || m.Cursor >= len(m.Matches) {
		return nil
	}
	return m.Matches[m.Cursor].Video
}
