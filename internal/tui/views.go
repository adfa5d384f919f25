package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/littlstar/lstar/internal/domain"
	"github.com/littlstar/lstar/internal/search"
	"github.com/littlstar/lstar/internal/tui/styles"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const progressBarWidth = 16

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.State == StateHelp {
		return m.renderHelp()
	}

	listHeight := m.Height - ChromeHeight
	var filter string
	if m.State == StateFiltering || m.filterInput.Value() != "" {
		filter = m.filterInput.View()
		listHeight--
	}

	parts := []string{m.renderHeader()}
	if filter != "" {
		parts = append(parts, filter)
	}
	parts = append(parts, m.renderList(listHeight), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := "Littlstar · " + m.listing.Title
	if m.PageCount > 0 {
		title += fmt.Sprintf("  page %d/%d (%d videos)", m.PageNum, m.PageCount, m.Total)
	}
	if m.FromCache {
		title += "  cached"
	}
	if m.Loading {
		title += "  " + styles.SpinnerStyle.Render(spinnerFrames[m.SpinnerFrame%len(spinnerFrames)])
	}
	return styles.HeaderStyle.Width(m.Width).Render(styles.Truncate(title, m.Width-2))
}

func (m Model) renderList(height int) string {
	if height <= 0 {
		return ""
	}
	if len(m.Matches) == 0 {
		msg := "No videos"
		if m.Loading {
			msg = "Loading videos..."
		} else if m.filterInput.Value() != "" {
			msg = "No matches"
		}
		return lipgloss.NewStyle().Height(height).Render(styles.DimStyle.Render("  " + msg))
	}

	start := 0
	if m.Cursor >= height {
		start = m.Cursor - height + 1
	}
	end := min(start+height, len(m.Matches))

	rows := make([]string, 0, height)
	for i := start; i < end; i++ {
		rows = append(rows, m.renderRow(m.Matches[i], i == m.Cursor))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(rows, "\n"))
}

func (m Model) renderRow(match search.Match, selected bool) string {
	v := match.Video

	indicator := styles.DimStyle.Render(styles.RemoteChar)
	switch v.DownloadState {
	case domain.Downloading:
		indicator = styles.InfoStyle.Render(styles.DownloadingChar)
	case domain.Downloaded:
		indicator = styles.SuccessStyle.Render(styles.DownloadedChar)
	}

	star := " "
	if v.Starred {
		star = styles.AccentStyle.Render(styles.StarChar)
	}

	right := fmt.Sprintf("%6s  %d★", v.FormattedDuration(), v.Stars)
	if t, ok := m.transfers[v.ID]; ok {
		right = m.renderTransfer(t) + "  " + right
	}

	titleWidth := m.Width - lipgloss.Width(right) - 10
	title := styles.Truncate(v.Title, titleWidth)
	if len(title) == len(v.Title) {
		title = styles.HighlightMatches(title, match.MatchedIndexes)
	}

	row := fmt.Sprintf("%s %s %s  %s", indicator, star, styles.Pad(title, titleWidth), right)
	if selected {
		return styles.SelectedItemStyle.Width(m.Width).Render(row)
	}
	return styles.NormalItemStyle.Width(m.Width).Render(row)
}

func (m Model) renderTransfer(t transfer) string {
	if t.total <= 0 {
		spin := spinnerFrames[m.SpinnerFrame%len(spinnerFrames)]
		return styles.SpinnerStyle.Render(spin) + " " + formatBytes(t.written)
	}
	f := t.fraction()
	return styles.RenderProgressBar(f, progressBarWidth) + fmt.Sprintf(" %3.0f%%", f*100)
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		return styles.FooterStyle.Render(style.Render(styles.Truncate(m.StatusMsg, m.Width-2)))
	}

	hints := []string{"enter play", "d download", "s star", "/ filter", "? help", "q quit"}
	if n := len(m.transfers); n > 0 {
		hints = append([]string{fmt.Sprintf("%d downloading", n)}, hints...)
	}
	return styles.FooterStyle.Render(styles.Truncate(strings.Join(hints, " · "), m.Width-2))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range helpBindings() {
		h := binding.Help()
		b.WriteString("  ")
		b.WriteString(styles.HelpKeyStyle.Render(styles.Pad(h.Key, 8)))
		b.WriteString(styles.HelpDescStyle.Render(h.Desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("press any key to return"))
	return b.String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
