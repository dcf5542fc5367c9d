package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/state"
	"github.com/five82/editer/internal/storage"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

// fakeSubscriber hands every opened feed to the test through opened.
type fakeSubscriber struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	opened chan chan storage.Change
}

func newFakeSubscriber(errs ...error) *fakeSubscriber {
	return &fakeSubscriber{errs: errs, opened: make(chan chan storage.Change, 8)}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, key string) (<-chan storage.Change, error) {
	f.mu.Lock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	ch := make(chan storage.Change, 4)
	f.opened <- ch
	return ch, nil
}

func (f *fakeSubscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func newSyncedDocs() *state.DocumentStore {
	return state.NewDocumentStore(storage.New(storage.NewMemoryBackend(), "document", nil), nil)
}

// draftFromElsewhere returns the stored bytes another editer would write for
// a draft holding content.
func draftFromElsewhere(t *testing.T, content string) []byte {
	t.Helper()
	backend := storage.NewMemoryBackend()
	other := state.NewDocumentStore(storage.New(backend, "document", nil), nil)
	other.SetContent(content)
	raw, err := backend.Get(context.Background(), state.StorageKey)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	return raw
}

func waitOpened(t *testing.T, f *fakeSubscriber) chan storage.Change {
	t.Helper()
	select {
	case ch := <-f.opened:
		return ch
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription was not opened")
		return nil
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("sync loop did not exit")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartSync_AppliesDraftFromOtherSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs := newSyncedDocs()
	sub := newFakeSubscriber()
	done := StartSync(ctx, docs, sub, discardLogger(), time.Millisecond)

	feed := waitOpened(t, sub)
	feed <- storage.Change{Key: state.StorageKey, Value: draftFromElsewhere(t, "typed elsewhere")}

	waitFor(t, "synced content", func() bool {
		return docs.Snapshot().Content == "typed elsewhere"
	})
	if !docs.Snapshot().HasUnsavedChanges {
		t.Fatalf("HasUnsavedChanges = false, want the other session's flag")
	}

	cancel()
	close(feed)
	waitDone(t, done)
}

func TestStartSync_IgnoresOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := storage.NewMemoryBackend()
	docs := state.NewDocumentStore(storage.New(backend, "document", nil), nil)
	var (
		mu     sync.Mutex
		synced []string
	)
	docs.Subscribe(func(c state.Change) {
		if c.Cause != state.CauseSync {
			return
		}
		mu.Lock()
		synced = append(synced, c.Document.Content)
		mu.Unlock()
	})
	sub := newFakeSubscriber()
	done := StartSync(ctx, docs, sub, discardLogger(), time.Millisecond)
	feed := waitOpened(t, sub)

	docs.SetContent("mine")
	raw, err := backend.Get(ctx, state.StorageKey)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	docs.SetContent("newer")
	feed <- storage.Change{Key: state.StorageKey, Value: raw}
	feed <- storage.Change{Key: state.StorageKey, Value: draftFromElsewhere(t, "marker")}

	waitFor(t, "marker content", func() bool {
		return docs.Snapshot().Content == "marker"
	})
	mu.Lock()
	defer mu.Unlock()
	if len(synced) != 1 || synced[0] != "marker" {
		t.Fatalf("synced = %q, want only the other session's write", synced)
	}

	cancel()
	close(feed)
	waitDone(t, done)
}

func TestStartSync_ResubscribesWhenFeedCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := newFakeSubscriber()
	done := StartSync(ctx, newSyncedDocs(), sub, discardLogger(), time.Millisecond)

	close(waitOpened(t, sub))
	second := waitOpened(t, sub)
	if got := sub.Calls(); got != 2 {
		t.Fatalf("Subscribe calls = %d, want 2", got)
	}

	cancel()
	close(second)
	waitDone(t, done)
}

func TestStartSync_RetriesSubscribeErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := newFakeSubscriber(errors.New("connection refused"), errors.New("connection refused"))
	done := StartSync(ctx, newSyncedDocs(), sub, discardLogger(), time.Millisecond)

	feed := waitOpened(t, sub)
	if got := sub.Calls(); got != 3 {
		t.Fatalf("Subscribe calls = %d, want 3", got)
	}

	cancel()
	close(feed)
	waitDone(t, done)
}

func TestStartSync_StopsWithoutChangeFeed(t *testing.T) {
	sub := newFakeSubscriber(storage.ErrNotifyUnsupported)
	done := StartSync(context.Background(), newSyncedDocs(), sub, discardLogger(), time.Millisecond)
	waitDone(t, done)
	if got := sub.Calls(); got != 1 {
		t.Fatalf("Subscribe calls = %d, want 1", got)
	}
}

func TestStartSync_StopsOnCancelWhileBackingOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := newFakeSubscriber(errors.New("down"))
	done := StartSync(ctx, newSyncedDocs(), sub, discardLogger(), time.Hour)

	waitFor(t, "first subscribe", func() bool { return sub.Calls() == 1 })
	cancel()
	waitDone(t, done)
}
