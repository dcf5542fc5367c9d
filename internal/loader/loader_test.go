package loader

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/five82/editer/internal/docapi"
	"github.com/five82/editer/internal/docapi/docapitest"
	"github.com/five82/editer/internal/failure"
	"github.com/five82/editer/internal/state"
	"github.com/five82/editer/internal/storage"
)

type errorLog struct {
	mu   sync.Mutex
	msgs []string
}

func (e *errorLog) Error(msg string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
	return len(e.msgs)
}

func setup(t *testing.T) (*docapitest.Server, *state.DocumentStore, *storage.Store, *errorLog, *Loader) {
	t.Helper()
	server := docapitest.NewServer(t)
	client, err := docapi.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	st := storage.New(storage.NewMemoryBackend(), "document", nil)
	docs := state.NewDocumentStore(st, nil)
	notes := &errorLog{}
	return server, docs, st, notes, New(docs, client, notes, nil)
}

func TestLoad_ExistingDocument(t *testing.T) {
	server, docs, _, notes, l := setup(t)
	seeded := server.Put("abc123", "remote text")

	res := l.Load(context.Background(), "abc123")
	if !res.Loaded || res.Failure != nil || res.ShareID != "abc123" {
		t.Fatalf("Result = %#v", res)
	}
	doc := docs.Snapshot()
	if doc.Content != "remote text" || doc.RemoteID != "abc123" || doc.IsTemporary || doc.HasUnsavedChanges {
		t.Fatalf("document = %#v", doc)
	}
	if !doc.LastSavedAt.Equal(seeded.UpdatedAt.Time) {
		t.Fatalf("LastSavedAt = %v, want %v", doc.LastSavedAt, seeded.UpdatedAt.Time)
	}
	if len(notes.msgs) != 0 {
		t.Fatalf("unexpected notifications: %v", notes.msgs)
	}
	if l.Loading() {
		t.Fatalf("Loading = true after Load returned")
	}
}

func TestLoad_ScenarioB_NotFoundFallsBackToTemporary(t *testing.T) {
	_, docs, _, notes, l := setup(t)
	docs.SetContent("something typed before")

	res := l.Load(context.Background(), "abc123")
	if res.Loaded || res.Failure == nil {
		t.Fatalf("Result = %#v, want failure", res)
	}
	if res.Failure.Kind != failure.KindNotFound {
		t.Fatalf("Kind = %v, want not found", res.Failure.Kind)
	}
	doc := docs.Snapshot()
	if !doc.IsTemporary || doc.Content != "" || doc.RemoteID != "" {
		t.Fatalf("document = %#v, want empty temporary", doc)
	}
	if len(notes.msgs) != 1 || notes.msgs[0] != res.Failure.Message {
		t.Fatalf("notifications = %v", notes.msgs)
	}
}

func TestLoad_ServerErrorMessage(t *testing.T) {
	server, _, _, _, l := setup(t)
	server.Put("abc", "x")
	server.FailNext(http.StatusInternalServerError)

	res := l.Load(context.Background(), "abc")
	if res.Failure == nil || res.Failure.Message != "Server error while loading document. Please try again later." {
		t.Fatalf("Result = %#v", res)
	}
}

func TestLoad_TimeoutIsDistinct(t *testing.T) {
	server, _, _, _, l := setup(t)
	server.Put("abc", "x")
	server.SetDelay(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := l.Load(ctx, "abc")
	if res.Failure == nil || res.Failure.Kind != failure.KindTimeout {
		t.Fatalf("Result = %#v, want timeout", res)
	}
}

func TestLoad_NoShareIDStartsTemporary(t *testing.T) {
	server, docs, _, _, l := setup(t)

	res := l.Load(context.Background(), "")
	if res.Loaded || res.Failure != nil || res.Rehydrated {
		t.Fatalf("Result = %#v", res)
	}
	if doc := docs.Snapshot(); !doc.IsTemporary || doc.Content != "" {
		t.Fatalf("document = %#v", doc)
	}
	if gets, _, _ := server.Counts(); gets != 0 {
		t.Fatalf("gets = %d, want 0", gets)
	}
}

func TestLoad_NoShareIDKeepsRehydratedDocument(t *testing.T) {
	_, docs, st, _, l := setup(t)
	state.NewDocumentStore(st, nil).SetContent("from last session")
	if !docs.Rehydrate(context.Background()) {
		t.Fatalf("Rehydrate = false")
	}

	res := l.Load(context.Background(), "")
	if !res.Rehydrated {
		t.Fatalf("Result = %#v, want rehydrated", res)
	}
	if got := docs.Snapshot().Content; got != "from last session" {
		t.Fatalf("content = %q", got)
	}
}
