package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/editer/internal/autosave"
	"github.com/five82/editer/internal/notify"
	"github.com/five82/editer/internal/prefs"
)

const (
	headerHeight = 1
	footerHeight = 1
	// borderSize is the horizontal and vertical cost of a rounded border.
	borderSize = 2
	minEditor  = 20
)

// layout sizes the text area for the current window, sidebar and font size.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	avail := m.width - borderSize
	if m.showSidebar {
		avail -= sidebarWidth
	}
	m.editor.SetWidth(editorWidth(avail, m.prefs.FontSize))
	m.editor.SetHeight(max(1, m.height-headerHeight-footerHeight-borderSize))
}

// editorWidth narrows the text column as the font size grows so larger text
// reads as a narrower measure, the way a proportional editor would reflow.
func editorWidth(avail, fontSize int) int {
	if avail < minEditor {
		return max(1, avail)
	}
	if fontSize <= 0 {
		fontSize = prefs.DefaultFontSize
	}
	w := avail * prefs.DefaultFontSize / fontSize
	if w > avail {
		w = avail
	}
	return max(minEditor, w)
}

func (m Model) renderMain() string {
	styles := m.theme.Styles()

	editor := styles.Editor.Render(m.editor.View())
	body := editor
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, editor, m.renderSidebar(styles))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(styles),
		body,
		m.renderFooter(styles),
	)
}

func (m Model) renderHeader(styles Styles) string {
	parts := []string{styles.AccentText.Bold(true).Render("editer")}

	switch {
	case m.loading:
		parts = append(parts, styles.WarningText.Render("Loading document..."))
	case m.doc.IsTemporary:
		parts = append(parts, styles.MutedText.Render("Draft (local only)"))
	case m.doc.RemoteID != "":
		parts = append(parts, styles.InfoText.Render(m.location.Path()))
	default:
		parts = append(parts, styles.MutedText.Render("Online document"))
	}

	parts = append(parts, m.saveIndicator(styles))
	if msg := storageCaution(m.doc.StorageError, m.settingsError); msg != "" {
		parts = append(parts, styles.DangerText.Render(msg))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

// saveIndicator describes the save state shown in the header.
func (m Model) saveIndicator(styles Styles) string {
	switch {
	case m.status == autosave.StatusSaving:
		return styles.InfoText.Render("Saving...")
	case m.doc.HasUnsavedChanges:
		return styles.WarningText.Render("● Unsaved changes")
	case !m.doc.LastSavedAt.IsZero():
		return styles.SuccessText.Render("Saved " + humanizeAgo(m.now.Sub(m.doc.LastSavedAt)))
	default:
		return styles.FaintText.Render("Not saved yet")
	}
}

func (m Model) renderSidebar(styles Styles) string {
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Settings"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", styles.MutedText.Render("Theme"), styles.Text.Render(m.theme.Name))
	fmt.Fprintf(&b, "%s %s\n", styles.MutedText.Render("Font size"), styles.Text.Render(fmt.Sprintf("%dpx", m.prefs.FontSize)))
	fmt.Fprintf(&b, "%s %s\n", check(m.prefs.ShowLineNumbers), styles.Text.Render("Line numbers"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Bold(true).Render("Document"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %d\n", styles.MutedText.Render("Characters"), len([]rune(m.content)))
	fmt.Fprintf(&b, "%s %d\n", styles.MutedText.Render("Lines"), strings.Count(m.content, "\n")+1)
	if m.lastLink != "" {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Share link"))
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render(truncateMiddle(m.lastLink, sidebarWidth-4)))
	}

	height := max(1, m.height-headerHeight-footerHeight-borderSize)
	return styles.Sidebar.
		Width(sidebarWidth - borderSize).
		Height(height).
		Render(b.String())
}

func (m Model) renderFooter(styles Styles) string {
	if n, ok := m.notes.Latest(m.now); ok {
		return styles.Footer.Width(m.width).Render(noteStyle(styles, n.Level).Render(n.Message))
	}

	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, styles.AccentText.Render(h.Key)+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(strings.Join(parts, "  "))
}

func noteStyle(styles Styles, level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelSuccess:
		return styles.SuccessText
	case notify.LevelWarning:
		return styles.WarningText
	case notify.LevelError:
		return styles.DangerText
	default:
		return styles.InfoText
	}
}

// storageCaution folds the document and settings storage problems into the
// one-line header warning.
func storageCaution(docErr, settingsErr string) string {
	switch {
	case docErr != "" && settingsErr != "":
		return "Document " + truncateMiddle(docErr, 30) + " | Settings " + truncateMiddle(settingsErr, 30)
	case docErr != "":
		return "Document " + truncateMiddle(docErr, 40)
	case settingsErr != "":
		return "Settings " + truncateMiddle(settingsErr, 40)
	default:
		return ""
	}
}

// humanizeAgo formats an elapsed duration for the save indicator.
func humanizeAgo(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
}

func truncateMiddle(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}
