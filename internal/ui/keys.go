package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the editor.
type keyMap struct {
	// Document
	Save         key.Binding
	CreateOnline key.Binding
	NewDocument  key.Binding
	Share        key.Binding

	// Settings
	ToggleSidebar     key.Binding
	ToggleTheme       key.Binding
	ToggleLineNumbers key.Binding
	FontUp            key.Binding
	FontDown          key.Binding

	// Editing
	Indent key.Binding

	// Global
	Help   key.Binding
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save now"),
		),
		CreateOnline: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "Create online document"),
		),
		NewDocument: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "New temporary document"),
		),
		Share: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "Copy share link"),
		),

		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "Toggle settings"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Light/dark theme"),
		),
		ToggleLineNumbers: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "Line numbers"),
		),
		FontUp: key.NewBinding(
			key.WithKeys("ctrl+]"),
			key.WithHelp("ctrl+]", "Larger font"),
		),
		FontDown: key.NewBinding(
			key.WithKeys("ctrl+_"),
			key.WithHelp("ctrl+_", "Smaller font"),
		),

		Indent: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Indent"),
		),

		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "Toggle help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.CreateOnline, k.Share, k.ToggleSidebar, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, grouped by section.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.CreateOnline, k.NewDocument, k.Share},
		{k.ToggleSidebar, k.ToggleTheme, k.ToggleLineNumbers, k.FontUp, k.FontDown},
		{k.Indent, k.Help, k.Quit},
	}
}
