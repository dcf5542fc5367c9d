// Package ui provides the terminal editing surface for editer.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model wrapping a bubbles textarea. It owns
// no document state of its own: every keystroke that changes the text is
// forwarded to state.DocumentStore.SetContent, and a periodic tick pulls the
// store back into the model so loads, cross-process syncs and resets show up
// in the editor.
//
// # Package Structure
//
//   - model.go: Model, Options, Update loop, commands and Run
//   - view.go: header, sidebar, footer and editor layout
//   - help.go: the keyboard shortcut overlay
//   - keys.go: key bindings
//   - theme.go: light and dark palettes
//
// # Event Flow
//
//  1. Init starts the refresh tick and loads the share id from the command
//     line through the loader.
//  2. Key presses are matched against the key map before the textarea sees
//     them. Save, create and share run as tea.Cmds so the network never
//     blocks rendering.
//  3. Other keys go to the textarea; a changed value is pushed to the store,
//     which in turn schedules an autosave.
//  4. Each tick refreshes the document snapshot, settings and save status
//     and surfaces the newest notification in the footer.
//
// # Settings
//
// Theme, line numbers and font size live in prefs.Store. A terminal has no
// font size, so the editor narrows its text column as the size grows.
package ui
