// Package prefs holds the editor settings (theme, font size, line numbers)
// and persists them in the local store under "theme-storage".
package prefs

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/storage"
)

// StorageKey is where settings are persisted.
const StorageKey = "theme-storage"

const (
	DefaultFontSize = 14
	MinFontSize     = 8
	MaxFontSize     = 32

	saveTimeout = 2 * time.Second
)

// Migrations upgrades stored settings. Register a function under the
// version that introduces a new field.
var Migrations = storage.Migrations{}

// Settings is the persisted subset of the settings state.
type Settings struct {
	IsDarkMode      bool `json:"isDarkMode"`
	FontSize        int  `json:"fontSize"`
	ShowLineNumbers bool `json:"showLineNumbers"`
}

// Defaults returns the settings used before anything is stored.
func Defaults() Settings {
	return Settings{FontSize: DefaultFontSize}
}

// Persistence is the subset of storage.Store the settings need.
type Persistence interface {
	Load(ctx context.Context, key string) (storage.Envelope, bool, error)
	Save(ctx context.Context, key string, env storage.Envelope) error
}

var _ Persistence = (*storage.Store)(nil)

// Store guards Settings and writes every change through.
type Store struct {
	mu           sync.RWMutex
	settings     Settings
	storageError string

	persist Persistence
	logger  *log.Logger
}

// NewStore returns a Store with default settings. persist may be nil.
func NewStore(persist Persistence, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{settings: Defaults(), persist: persist, logger: logger}
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// StorageError returns the last advisory storage problem, if any.
func (s *Store) StorageError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storageError
}

// ToggleTheme switches between the light and dark theme.
func (s *Store) ToggleTheme() {
	s.update(func(p *Settings) { p.IsDarkMode = !p.IsDarkMode })
}

// SetTheme selects the dark theme when dark is set.
func (s *Store) SetTheme(dark bool) {
	s.update(func(p *Settings) { p.IsDarkMode = dark })
}

// SetFontSize stores size clamped to MinFontSize..MaxFontSize.
func (s *Store) SetFontSize(size int) {
	s.update(func(p *Settings) { p.FontSize = clampFontSize(size) })
}

// SetShowLineNumbers turns the editor gutter on or off.
func (s *Store) SetShowLineNumbers(show bool) {
	s.update(func(p *Settings) { p.ShowLineNumbers = show })
}

// ToggleLineNumbers flips the editor gutter.
func (s *Store) ToggleLineNumbers() {
	s.update(func(p *Settings) { p.ShowLineNumbers = !p.ShowLineNumbers })
}

// Rehydrate loads stored settings, keeping defaults for missing fields.
// Failures are advisory and leave the current settings in place.
func (s *Store) Rehydrate(ctx context.Context) {
	if s.persist == nil {
		return
	}
	env, ok, err := s.persist.Load(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("rehydrate settings failed", "err", err)
		s.setStorageError(err)
	}
	if !ok {
		return
	}

	loaded := Defaults()
	if err := env.Decode(&loaded); err != nil {
		s.logger.Warn("stored settings are unreadable", "err", err)
		s.setStorageError(err)
		return
	}
	if !env.Has("fontSize") {
		loaded.FontSize = DefaultFontSize
	}
	loaded.FontSize = clampFontSize(loaded.FontSize)

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
}

func (s *Store) update(fn func(*Settings)) {
	s.mu.Lock()
	fn(&s.settings)
	snap := s.settings
	s.mu.Unlock()

	if s.persist == nil {
		return
	}
	env, err := storage.EnvelopeOf(snap)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err = s.persist.Save(ctx, StorageKey, env)
		cancel()
	}
	if err != nil {
		s.logger.Warn("persist settings failed", "err", err)
	}
	s.setStorageError(err)
}

func (s *Store) setStorageError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.storageError = ""
		return
	}
	s.storageError = fmt.Sprintf("Storage error: %v", err)
}

func clampFontSize(size int) int {
	switch {
	case size == 0:
		return DefaultFontSize
	case size < MinFontSize:
		return MinFontSize
	case size > MaxFontSize:
		return MaxFontSize
	default:
		return size
	}
}
