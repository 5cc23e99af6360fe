package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color definitions using AdaptiveColor for automatic light/dark mode switching
var (
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	InfoColor    = lipgloss.AdaptiveColor{Light: "#17A2B8", Dark: "#4DD0E1"}
	BorderColor  = lipgloss.AdaptiveColor{Light: "#DEE2E6", Dark: "#3B3C4F"}
)

// styles are bound to one renderer so colour detection follows the writer,
// not the process stdout.
type styles struct {
	title   lipgloss.Style
	bold    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:   r.NewStyle().Foreground(HeadingColor).Bold(true),
		bold:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(MutedColor),
		success: r.NewStyle().Foreground(SuccessColor).Bold(true),
		err:     r.NewStyle().Foreground(ErrorColor).Bold(true),
		warning: r.NewStyle().Foreground(WarningColor).Bold(true),
		info:    r.NewStyle().Foreground(InfoColor),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1),
	}
}

// Status indicators
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	SkipIcon    = "→"
	PendingIcon = "○"
)

// phaseIcons picks an icon from keywords in the phase name when the phase
// sets none. Order matters: the first match wins.
var phaseIcons = []struct {
	keyword string
	icon    string
}{
	{"prerequisites", "🔍"},
	{"environment", "🏗️"},
	{"data", "💾"},
	{"database", "🗄️"},
	{"migrations", "🔄"},
	{"services", "🚀"},
	{"validation", "✅"},
	{"test", "🧪"},
	{"cleanup", "🧹"},
	{"deploy", "📦"},
	{"build", "🔨"},
	{"install", "📥"},
	{"configure", "⚙️"},
}

var operationIcons = map[string]string{
	"script_exec":     "📜",
	"kubectl_exec":    "☸️",
	"kubectl_restart": "🔄",
	"kubectl_apply":   "📦",
	"kubectl_delete":  "🗑️",
	"http_request":    "🌐",
	"custom":          "⚙️",
	"skip":            "⏭️",
}

const defaultIcon = "▶️"
