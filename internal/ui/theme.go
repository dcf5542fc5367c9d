package ui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Background string
	Surface    string
	CursorLine string
	Border     string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles contains pre-built Lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Sidebar lipgloss.Style
	Editor  lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Editor: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Accent)),
	}
}

// EditorStyle returns the textarea styling for this theme.
func (t Theme) EditorStyle() textarea.Style {
	return textarea.Style{
		Base:             lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		CursorLine:       lipgloss.NewStyle().Background(lipgloss.Color(t.CursorLine)),
		CursorLineNumber: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		EndOfBuffer:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		LineNumber:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Placeholder:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Prompt:           lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		Text:             lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
	}
}

// ThemeFor returns the dark or the light theme.
func ThemeFor(dark bool) Theme {
	if dark {
		return darkTheme()
	}
	return lightTheme()
}

func lightTheme() Theme {
	return Theme{
		Name:       "Light",
		Background: "#FFFFFF",
		Surface:    "#F3F4F6",
		CursorLine: "#EEF2FF",
		Border:     "#D1D5DB",
		Text:       "#111827",
		Muted:      "#6B7280",
		Faint:      "#D1D5DB",
		Accent:     "#2563EB",
		Success:    "#16A34A",
		Warning:    "#D97706",
		Danger:     "#DC2626",
		Info:       "#0284C7",
	}
}

func darkTheme() Theme {
	return Theme{
		Name:       "Dark",
		Background: "#111827",
		Surface:    "#1F2937",
		CursorLine: "#1E293B",
		Border:     "#374151",
		Text:       "#F9FAFB",
		Muted:      "#9CA3AF",
		Faint:      "#4B5563",
		Accent:     "#60A5FA",
		Success:    "#4ADE80",
		Warning:    "#FBBF24",
		Danger:     "#F87171",
		Info:       "#38BDF8",
	}
}
