package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/editer/internal/autosave"
	"github.com/five82/editer/internal/failure"
	"github.com/five82/editer/internal/loader"
	"github.com/five82/editer/internal/nav"
	"github.com/five82/editer/internal/notify"
	"github.com/five82/editer/internal/prefs"
	"github.com/five82/editer/internal/share"
	"github.com/five82/editer/internal/state"
)

const (
	// RefreshTick is how often external document changes are pulled in.
	RefreshTick = 200 * time.Millisecond

	sidebarWidth = 30
	indentText   = "  "
)

// Saver is the part of the autosave coordinator the UI drives.
type Saver interface {
	ManualSave(ctx context.Context) error
	CreateOnlineDocument(ctx context.Context) (string, error)
	Status() autosave.Status
}

// DocumentLoader opens a share id.
type DocumentLoader interface {
	Load(ctx context.Context, shareID string) loader.Result
}

// LinkSharer copies share links.
type LinkSharer interface {
	Share(shareID string) (string, error)
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Docs     *state.DocumentStore
	Settings *prefs.Store
	Saver    Saver
	Loader   DocumentLoader
	Sharer   LinkSharer
	Notes    *notify.Center
	Location *nav.Location
	ShareID  string
	Tick     time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	docs     *state.DocumentStore
	settings *prefs.Store
	saver    Saver
	loader   DocumentLoader
	sharer   LinkSharer
	notes    *notify.Center
	location *nav.Location
	shareID  string
	tick     time.Duration

	keys   keyMap
	editor textarea.Model
	theme  Theme
	width  int
	height int
	ready  bool

	// content is the value last exchanged between the editor and the store.
	content  string
	doc      state.Document
	prefs    prefs.Settings
	status   autosave.Status
	loading  bool
	now      time.Time
	lastLink string

	// settingsError is the settings store's advisory storage problem.
	settingsError string

	showHelp    bool
	showSidebar bool
	quitArmed   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = RefreshTick
	}
	notes := opts.Notes
	if notes == nil {
		notes = notify.NewCenter()
	}
	location := opts.Location
	if location == nil {
		location = nav.NewLocation(opts.ShareID)
	}

	editor := textarea.New()
	editor.Placeholder = "Start typing your text here..."
	editor.Prompt = ""
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Focus()

	m := Model{
		ctx:      ctx,
		docs:     opts.Docs,
		settings: opts.Settings,
		saver:    opts.Saver,
		loader:   opts.Loader,
		sharer:   opts.Sharer,
		notes:    notes,
		location: location,
		shareID:  opts.ShareID,
		tick:     tick,
		keys:     DefaultKeyMap(),
		editor:   editor,
		now:      time.Now(),
		loading:  opts.Loader != nil,
	}
	m.syncFromStores()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, tickCmd(m.tick)}
	if m.loader != nil {
		cmds = append(cmds, loadCmd(m.ctx, m.loader, m.shareID))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.syncFromStores()
		return m, tickCmd(m.tick)

	case loadedMsg:
		m.loading = false
		if msg.result.Loaded {
			m.shareID = msg.result.ShareID
		}
		m.syncFromStores()
		return m, nil

	case savedMsg:
		if errors.Is(msg.err, autosave.ErrSaveInFlight) {
			m.notes.Info("A save is already in progress")
		}
		m.syncFromStores()
		return m, nil

	case createdMsg:
		if msg.err == nil {
			m.shareID = msg.id
		}
		m.syncFromStores()
		return m, nil

	case sharedMsg:
		m.handleShared(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.doc.HasUnsavedChanges && m.doc.IsPersisted() && !m.quitArmed {
			m.quitArmed = true
			m.notes.Warning("Unsaved changes. Press ctrl+s to save or ctrl+c again to quit.")
			return m, nil
		}
		return m, tea.Quit

	case m.showHelp && (key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Escape)):
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case m.showHelp:
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if m.saver == nil {
			return m, nil
		}
		return m, saveCmd(m.ctx, m.saver)

	case key.Matches(msg, m.keys.CreateOnline):
		if m.saver == nil {
			return m, nil
		}
		return m, createCmd(m.ctx, m.saver)

	case key.Matches(msg, m.keys.NewDocument):
		if m.docs != nil {
			m.docs.CreateTemporaryDocument()
			m.location.Replace(nav.EditPath(""))
			m.shareID = ""
			m.notes.Info("Started a new temporary document")
		}
		m.syncFromStores()
		return m, nil

	case key.Matches(msg, m.keys.Share):
		if m.sharer == nil {
			return m, nil
		}
		return m, shareCmd(m.sharer, m.doc.RemoteID)

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme):
		m.withSettings(func(s *prefs.Store) { s.ToggleTheme() })
		return m, nil

	case key.Matches(msg, m.keys.ToggleLineNumbers):
		m.withSettings(func(s *prefs.Store) { s.ToggleLineNumbers() })
		return m, nil

	case key.Matches(msg, m.keys.FontUp):
		size := m.prefs.FontSize + 1
		m.withSettings(func(s *prefs.Store) { s.SetFontSize(size) })
		return m, nil

	case key.Matches(msg, m.keys.FontDown):
		size := m.prefs.FontSize - 1
		m.withSettings(func(s *prefs.Store) { s.SetFontSize(size) })
		return m, nil

	case key.Matches(msg, m.keys.Indent):
		m.editor.InsertString(indentText)
		m.pushContent()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.pushContent()
	return m, cmd
}

// pushContent forwards an edit made in the text area to the store.
func (m *Model) pushContent() {
	value := m.editor.Value()
	if value == m.content {
		return
	}
	m.content = value
	if m.docs != nil {
		m.docs.SetContent(value)
		m.doc = m.docs.Snapshot()
	}
}

// syncFromStores pulls document, settings and save status into the model.
// Content that changed outside the editor (load, sync, reset) replaces the
// text area value.
func (m *Model) syncFromStores() {
	if m.docs != nil {
		m.doc = m.docs.Snapshot()
		if m.doc.Content != m.content {
			m.content = m.doc.Content
			m.editor.SetValue(m.doc.Content)
		}
	}
	if m.settings != nil {
		m.prefs = m.settings.Snapshot()
		m.settingsError = m.settings.StorageError()
	} else if m.prefs.FontSize == 0 {
		m.prefs = prefs.Defaults()
	}
	if m.saver != nil {
		m.status = m.saver.Status()
	}
	m.applyTheme()
	m.layout()
}

func (m *Model) withSettings(fn func(*prefs.Store)) {
	if m.settings == nil {
		return
	}
	fn(m.settings)
	m.prefs = m.settings.Snapshot()
	m.settingsError = m.settings.StorageError()
	m.applyTheme()
	m.layout()
}

func (m *Model) applyTheme() {
	m.theme = ThemeFor(m.prefs.IsDarkMode)
	style := m.theme.EditorStyle()
	m.editor.FocusedStyle = style
	m.editor.BlurredStyle = style
	m.editor.ShowLineNumbers = m.prefs.ShowLineNumbers
}

func (m *Model) handleShared(msg sharedMsg) {
	switch {
	case msg.err == nil:
		m.lastLink = msg.link
		m.notes.Success("Share link copied: " + msg.link)
	case errors.Is(msg.err, share.ErrNotShareable):
		m.notes.Info("Create an online document first (ctrl+o)")
	default:
		if msg.link != "" {
			m.lastLink = msg.link
		}
		m.notes.Error(failure.Classify(msg.err, failure.OpShare).Message)
	}
}

// Messages

type tickMsg time.Time

type loadedMsg struct{ result loader.Result }

type savedMsg struct{ err error }

type createdMsg struct {
	id  string
	err error
}

type sharedMsg struct {
	link string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadCmd(ctx context.Context, l DocumentLoader, shareID string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{result: l.Load(ctx, shareID)}
	}
}

func saveCmd(ctx context.Context, s Saver) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: s.ManualSave(ctx)}
	}
}

func createCmd(ctx context.Context, s Saver) tea.Cmd {
	return func() tea.Msg {
		id, err := s.CreateOnlineDocument(ctx)
		return createdMsg{id: id, err: err}
	}
}

func shareCmd(s LinkSharer, shareID string) tea.Cmd {
	return func() tea.Msg {
		link, err := s.Share(shareID)
		return sharedMsg{link: link, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
