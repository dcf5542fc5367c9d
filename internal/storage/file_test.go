package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	b, err := NewFileBackend(dir, nil)
	if err != nil {
		t.Fatalf("NewFileBackend returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := b.Get(ctx, "doc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing error = %v, want ErrNotFound", err)
	}
	if err := b.Set(ctx, "doc", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := b.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Get = %s, want {\"a\":1}", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.json")); err != nil {
		t.Fatalf("expected doc.json on disk: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("store dir has %d entries, want 1 (temp files cleaned up)", len(entries))
	}

	if err := b.Delete(ctx, "doc"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := b.Delete(ctx, "doc"); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileBackend returned error: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "a/b", `a\b`} {
		if err := b.Set(context.Background(), key, []byte("{}")); err == nil {
			t.Fatalf("Set(%q) returned nil error, want invalid key", key)
		}
	}
}

func TestNewFileBackend_EmptyDirFails(t *testing.T) {
	if _, err := NewFileBackend(" ", nil); err == nil {
		t.Fatalf("NewFileBackend returned nil error, want error")
	}
}

func TestFileBackend_SubscribeSeesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	watcherSide, err := NewFileBackend(dir, nil)
	if err != nil {
		t.Fatalf("NewFileBackend returned error: %v", err)
	}
	writerSide, err := NewFileBackend(dir, nil)
	if err != nil {
		t.Fatalf("NewFileBackend returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := watcherSide.Subscribe(ctx, "doc")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	if err := writerSide.Set(ctx, "other", []byte(`{"ignored":true}`)); err != nil {
		t.Fatalf("Set other: %v", err)
	}
	if err := writerSide.Set(ctx, "doc", []byte(`{"content":"x"}`)); err != nil {
		t.Fatalf("Set doc: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case change := <-ch:
			if change.Key != "doc" {
				t.Fatalf("change key = %q, want doc", change.Key)
			}
			if string(change.Value) == `{"content":"x"}` {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for file change")
		}
	}
}
