package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Accent     = lipgloss.Color("#F2542D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Text styles
var (
	TitleStyle    = lipgloss.NewStyle().Foreground(White).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(LightGray)
	DimStyle      = lipgloss.NewStyle().Foreground(DimGray)
	AccentStyle   = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle    = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle  = lipgloss.NewStyle().Foreground(Green)
	InfoStyle     = lipgloss.NewStyle().Foreground(Blue)
)

// Raw download state characters (unstyled)
const (
	RemoteChar      = "○"
	DownloadingChar = "◐"
	DownloadedChar  = "●"
	StarChar        = "★"
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().Foreground(White).Background(SlateLight).Padding(0, 1)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(LightGray).Padding(0, 1)
)

// Header and footer
var (
	HeaderStyle = lipgloss.NewStyle().Foreground(White).Background(SlateDark).Bold(true).Padding(0, 1)
	FooterStyle = lipgloss.NewStyle().Foreground(DimGray).Padding(0, 1)
)

// Help styles
var (
	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(DimGray)
)

// Progress bar styles
var (
	ProgressFullStyle  = lipgloss.NewStyle().Foreground(Accent)
	ProgressEmptyStyle = lipgloss.NewStyle().Foreground(DimGray)
)

var SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

// Filter styles
var (
	FilterStyle         = lipgloss.NewStyle().Foreground(Accent)
	FilterPromptStyle   = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	MatchHighlightStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
)

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// Pad pads a string to the given display width
func Pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// RenderProgressBar renders a bar for a fraction in [0,1]
func RenderProgressBar(fraction float64, width int) string {
	if width < 3 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}

	filled := int(float64(width) * fraction)
	if filled > width {
		filled = width
	}
	return ProgressFullStyle.Render(strings.Repeat("█", filled)) +
		ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// HighlightMatches renders s with the runes starting at the given byte
// offsets highlighted
func HighlightMatches(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}
	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(MatchHighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
