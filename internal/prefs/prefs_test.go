package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/five82/editer/internal/storage"
)

func TestStore_Defaults(t *testing.T) {
	s := NewStore(nil, nil)
	got := s.Snapshot()
	if got.IsDarkMode || got.FontSize != DefaultFontSize || got.ShowLineNumbers {
		t.Fatalf("defaults = %#v", got)
	}
}

func TestStore_MutatorsPersist(t *testing.T) {
	st := storage.New(storage.NewMemoryBackend(), "settings", Migrations)
	s := NewStore(st, nil)

	s.ToggleTheme()
	s.SetFontSize(18)
	s.ToggleLineNumbers()

	env, ok, err := st.Load(context.Background(), StorageKey)
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	if env.Version != storage.CurrentVersion {
		t.Fatalf("Version = %q, want %q", env.Version, storage.CurrentVersion)
	}
	var got Settings
	if err := env.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Settings{IsDarkMode: true, FontSize: 18, ShowLineNumbers: true}
	if got != want {
		t.Fatalf("stored = %#v, want %#v", got, want)
	}

	s.SetTheme(false)
	s.SetShowLineNumbers(false)
	if snap := s.Snapshot(); snap.IsDarkMode || snap.ShowLineNumbers {
		t.Fatalf("snapshot = %#v", snap)
	}
}

func TestStore_SetFontSizeClamps(t *testing.T) {
	s := NewStore(nil, nil)
	tests := []struct{ in, want int }{
		{2, MinFontSize},
		{100, MaxFontSize},
		{0, DefaultFontSize},
		{20, 20},
	}
	for _, tt := range tests {
		s.SetFontSize(tt.in)
		if got := s.Snapshot().FontSize; got != tt.want {
			t.Fatalf("SetFontSize(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStore_RehydrateRestoresAcrossSessions(t *testing.T) {
	st := storage.New(storage.NewMemoryBackend(), "settings", Migrations)
	NewStore(st, nil).SetTheme(true)

	next := NewStore(st, nil)
	next.Rehydrate(context.Background())
	if got := next.Snapshot(); !got.IsDarkMode || got.FontSize != DefaultFontSize {
		t.Fatalf("rehydrated = %#v", got)
	}
}

func TestStore_RehydrateFillsMissingFields(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if err := backend.Set(context.Background(), StorageKey, []byte(`{"isDarkMode":true}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s := NewStore(storage.New(backend, "settings", Migrations), nil)
	s.Rehydrate(context.Background())

	got := s.Snapshot()
	if !got.IsDarkMode || got.FontSize != DefaultFontSize || got.ShowLineNumbers {
		t.Fatalf("rehydrated = %#v", got)
	}
}

func TestStore_RehydrateAppliesMigrations(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if err := backend.Set(context.Background(), StorageKey, []byte(`{"isDarkMode":false,"fontSize":12,"version":"1.0.0"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	migrations := storage.Migrations{
		"1.1.0": func(env storage.Envelope) storage.Envelope {
			env.Fields["showLineNumbers"] = true
			return env
		},
	}
	st := storage.New(backend, "settings", migrations, storage.WithVersion("1.1.0"))
	s := NewStore(st, nil)
	s.Rehydrate(context.Background())

	if got := s.Snapshot(); !got.ShowLineNumbers || got.FontSize != 12 {
		t.Fatalf("rehydrated = %#v", got)
	}
}

func TestStore_RehydrateCorruptKeepsDefaults(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if err := backend.Set(context.Background(), StorageKey, []byte("not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s := NewStore(storage.New(backend, "settings", Migrations), nil)
	s.Rehydrate(context.Background())

	if got := s.Snapshot(); got != Defaults() {
		t.Fatalf("settings = %#v, want defaults", got)
	}
	if s.StorageError() == "" {
		t.Fatalf("StorageError should be set")
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, storage.ErrNotFound }
func (failingBackend) Set(context.Context, string, []byte) error   { return errors.New("disk full") }
func (failingBackend) Delete(context.Context, string) error        { return nil }

func TestStore_SaveFailureIsAdvisory(t *testing.T) {
	s := NewStore(storage.New(failingBackend{}, "settings", Migrations), nil)
	s.ToggleTheme()

	if !s.Snapshot().IsDarkMode {
		t.Fatalf("setting should still change in memory")
	}
	if s.StorageError() == "" {
		t.Fatalf("StorageError should be set")
	}
}
