// Package loader hydrates the document state from the address the editor
// was opened with.
package loader

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/docapi"
	"github.com/five82/editer/internal/failure"
	"github.com/five82/editer/internal/state"
)

// Notifier shows load failures.
type Notifier interface {
	Error(msg string) int
}

// Result describes what a Load did.
type Result struct {
	ShareID    string
	Loaded     bool
	Rehydrated bool
	// Failure is set when a remote load failed and the editor fell back to
	// a temporary document.
	Failure *failure.Failure
}

// Loader fetches documents into a state.DocumentStore.
type Loader struct {
	docs   *state.DocumentStore
	api    docapi.DocumentService
	notes  Notifier
	logger *log.Logger

	mu      sync.Mutex
	loading bool
}

// New returns a Loader. notes and logger may be nil.
func New(docs *state.DocumentStore, api docapi.DocumentService, notes Notifier, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loader{docs: docs, api: api, notes: notes, logger: logger}
}

// Loading reports whether a remote fetch is running.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Load opens shareID. Without an id it keeps a temporary document restored
// from the local store, or starts an empty one. A failed fetch is reported
// and replaced by an empty temporary document so editing can continue.
func (l *Loader) Load(ctx context.Context, shareID string) Result {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		doc := l.docs.Snapshot()
		if doc.IsTemporary && doc.Content != "" {
			l.logger.Debug("keeping rehydrated temporary document", "bytes", len(doc.Content))
			return Result{Rehydrated: true}
		}
		l.docs.CreateTemporaryDocument()
		return Result{}
	}

	l.setLoading(true)
	defer l.setLoading(false)

	doc, err := l.api.GetDocument(ctx, shareID)
	if err != nil {
		f := failure.Classify(err, failure.OpLoad)
		l.logger.Warn("load document failed", "share_id", shareID, "kind", f.Kind, "err", err)
		if l.notes != nil {
			l.notes.Error(f.Message)
		}
		l.docs.CreateTemporaryDocument()
		return Result{ShareID: shareID, Failure: &f}
	}

	savedAt := doc.UpdatedAt.Time
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	id := doc.ShareID
	if id == "" {
		id = shareID
	}
	l.docs.LoadSavedDocument(doc.Content, id, savedAt)
	l.logger.Info("loaded document", "share_id", id, "bytes", len(doc.Content))
	return Result{ShareID: id, Loaded: true}
}

func (l *Loader) setLoading(v bool) {
	l.mu.Lock()
	l.loading = v
	l.mu.Unlock()
}
