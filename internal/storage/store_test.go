package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStore_LoadMissingKey(t *testing.T) {
	s := New(NewMemoryBackend(), "doc", nil)

	_, ok, err := s.Load(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ok {
		t.Fatalf("ok = true, want false for missing key")
	}
}

func TestStore_SaveStampsCurrentVersion(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, "doc", nil, WithVersion("1.3.0"))

	if err := s.Save(context.Background(), "k", NewEnvelope(map[string]any{"content": "hi"})); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	raw, _ := backend.Get(context.Background(), "k")
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if flat["version"] != "1.3.0" {
		t.Fatalf("version = %v, want 1.3.0", flat["version"])
	}
	if flat["content"] != "hi" {
		t.Fatalf("content = %v, want hi", flat["content"])
	}
}

func TestStore_LoadAppliesMigrationFromOlderVersion(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Set(ctx, "k", []byte(`{"content":"old","version":"1.0.0"}`))

	migrations := Migrations{
		"1.1.0": func(e Envelope) Envelope {
			e.Fields["wordWrap"] = true
			return e
		},
	}
	s := New(backend, "doc", migrations, WithVersion("1.1.0"))

	env, ok, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !ok {
		t.Fatalf("ok = false, want true")
	}
	if env.Version != "1.1.0" {
		t.Fatalf("Version = %q, want 1.1.0", env.Version)
	}
	if env.Fields["wordWrap"] != true {
		t.Fatalf("wordWrap = %v, want true", env.Fields["wordWrap"])
	}
	if env.Fields["content"] != "old" {
		t.Fatalf("content = %v, want old", env.Fields["content"])
	}
	if !env.Migrated {
		t.Fatalf("Migrated = false, want true")
	}
}

func TestStore_UnversionedLoadsAndIsTaggedOnNextSave(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Set(ctx, "k", []byte(`{"content":"legacy"}`))
	s := New(backend, "doc", nil)

	env, ok, err := s.Load(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Load = ok:%v err:%v, want ok", ok, err)
	}
	if env.Version != CurrentVersion || env.Migrated {
		t.Fatalf("env = %#v, want current version, not migrated", env)
	}

	if err := s.Save(ctx, "k", env); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	raw, _ := backend.Get(ctx, "k")
	if !strings.Contains(string(raw), `"version":"`+CurrentVersion+`"`) {
		t.Fatalf("saved = %s, want version tag", raw)
	}
}

func TestStore_LoadCorruptJSONIsAdvisory(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Set(ctx, "k", []byte(`{not json`))
	s := New(backend, "doc", nil)

	_, ok, err := s.Load(ctx, "k")
	if err == nil {
		t.Fatalf("Load returned nil error, want decode error")
	}
	if ok {
		t.Fatalf("ok = true, want false for corrupt data")
	}
}

func TestStore_LoadPanickingMigrationReturnsRaw(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Set(ctx, "k", []byte(`{"content":"keep me","version":"0.9.0"}`))
	s := New(backend, "doc", Migrations{
		"1.0.0": func(Envelope) Envelope { panic("bad migration") },
	})

	env, ok, err := s.Load(ctx, "k")
	if err == nil || !strings.Contains(err.Error(), "bad migration") {
		t.Fatalf("Load error = %v, want migration error", err)
	}
	if !ok {
		t.Fatalf("ok = false, want raw envelope")
	}
	if env.Version != "0.9.0" || env.Fields["content"] != "keep me" {
		t.Fatalf("env = %#v, want raw unmigrated envelope", env)
	}
}

type flakyBackend struct {
	*MemoryBackend
	failVersioned bool
	failAll       bool
	sets          int
}

func (b *flakyBackend) Set(ctx context.Context, key string, value []byte) error {
	b.sets++
	if b.failAll {
		return errors.New("disk full")
	}
	if b.failVersioned && strings.Contains(string(value), `"version"`) {
		return errors.New("quota exceeded")
	}
	return b.MemoryBackend.Set(ctx, key, value)
}

func TestStore_SaveFallsBackToUnversioned(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend(), failVersioned: true}
	s := New(backend, "doc", nil)
	ctx := context.Background()

	err := s.Save(ctx, "k", NewEnvelope(map[string]any{"content": "precious"}))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("Save error = %v, want advisory quota error", err)
	}
	if backend.sets != 2 {
		t.Fatalf("sets = %d, want 2 (versioned then fallback)", backend.sets)
	}

	raw, getErr := backend.Get(ctx, "k")
	if getErr != nil {
		t.Fatalf("fallback value missing: %v", getErr)
	}
	if string(raw) != `{"content":"precious"}` {
		t.Fatalf("fallback = %s, want un-versioned content", raw)
	}
}

func TestStore_SaveReportsWhenFallbackFails(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend(), failAll: true}
	s := New(backend, "doc", nil)

	err := s.Save(context.Background(), "k", NewEnvelope(nil))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Save error = %v, want disk full", err)
	}
}

func TestStore_Clear(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, "doc", nil)
	ctx := context.Background()

	_ = s.Save(ctx, "k", NewEnvelope(map[string]any{"a": 1}))
	if err := s.Clear(ctx, "k"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, ok, _ := s.Load(ctx, "k"); ok {
		t.Fatalf("key still present after Clear")
	}
	if err := s.Clear(ctx, "k"); err != nil {
		t.Fatalf("Clear of missing key returned error: %v", err)
	}
}

func TestStore_SubscribeUnsupported(t *testing.T) {
	var backend Backend = struct{ Backend }{NewMemoryBackend()}
	s := New(backend, "doc", nil)
	if _, err := s.Subscribe(context.Background(), "k"); !errors.Is(err, ErrNotifyUnsupported) {
		t.Fatalf("Subscribe error = %v, want ErrNotifyUnsupported", err)
	}
}

func TestStore_SubscribeAndParse(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, "doc", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "k")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	_ = s.Save(ctx, "k", NewEnvelope(map[string]any{"content": "from elsewhere"}))

	select {
	case change := <-ch:
		env, err := s.Parse(change.Value)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if env.Fields["content"] != "from elsewhere" {
			t.Fatalf("content = %v, want from elsewhere", env.Fields["content"])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change")
	}

	cancel()
	for range ch {
	}
}
