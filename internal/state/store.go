package state

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/five82/editer/internal/storage"
)

// StorageKey is where the temporary document is persisted.
const StorageKey = "editer-document-storage"

// persistTimeout bounds a single write to the local store.
const persistTimeout = 2 * time.Second

// Migrations upgrades stored temporary documents.
var Migrations = storage.Migrations{}

// Persistence is the port the container uses to reach the local store.
type Persistence interface {
	Load(ctx context.Context, key string) (storage.Envelope, bool, error)
	Save(ctx context.Context, key string, env storage.Envelope) error
	Clear(ctx context.Context, key string) error
	Parse(raw []byte) (storage.Envelope, error)
}

var _ Persistence = (*storage.Store)(nil)

// Document is the editor's current document.
type Document struct {
	Content           string
	RemoteID          string
	IsTemporary       bool
	HasUnsavedChanges bool
	LastSavedAt       time.Time
	LastSavedContent  string
	StorageError      string
}

// IsPersisted reports whether the document lives on the server.
func (d Document) IsPersisted() bool {
	return !d.IsTemporary
}

// Cause says which kind of mutation produced a Change.
type Cause int

const (
	CauseEdit Cause = iota
	CauseLoad
	CauseSync
	CauseSave
	CauseReset
)

func (c Cause) String() string {
	switch c {
	case CauseEdit:
		return "edit"
	case CauseLoad:
		return "load"
	case CauseSync:
		return "sync"
	case CauseSave:
		return "save"
	case CauseReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change is delivered to observers after every mutation.
type Change struct {
	Document Document
	Cause    Cause
}

// persisted is the subset of Document written to the local store.
type persisted struct {
	Content           string `json:"content"`
	IsTemporary       bool   `json:"isTemporaryDocument"`
	HasUnsavedChanges bool   `json:"hasUnsavedChanges"`
	Origin            string `json:"origin,omitempty"`
}

// DocumentStore owns the Document. Its methods are the only place the
// document changes; all of them are safe for concurrent use.
type DocumentStore struct {
	mu  sync.RWMutex
	doc Document

	persist Persistence
	origin  string
	logger  *log.Logger

	// persistMu orders writes so the store sees them in mutation order.
	persistMu sync.Mutex

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

// NewDocumentStore returns a container holding an empty temporary document.
// persist may be nil, in which case nothing is written.
func NewDocumentStore(persist Persistence, logger *log.Logger) *DocumentStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DocumentStore{
		doc:       Document{IsTemporary: true},
		persist:   persist,
		origin:    uuid.NewString(),
		logger:    logger,
		observers: make(map[int]func(Change)),
	}
}

// Origin identifies writes made by this process.
func (s *DocumentStore) Origin() string {
	return s.origin
}

// Snapshot returns a copy of the current document.
func (s *DocumentStore) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Subscribe registers fn for every Change. fn runs on the mutating goroutine
// after the lock is released. The returned func unregisters it.
func (s *DocumentStore) Subscribe(fn func(Change)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.nextObs++
	id := s.nextObs
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// SetContent replaces the content. The unsaved flag reflects whether the new
// value differs from the previous one.
func (s *DocumentStore) SetContent(content string) {
	s.apply(CauseEdit, true, func(d *Document) bool {
		d.HasUnsavedChanges = content != d.Content
		d.Content = content
		return true
	})
}

// LoadSavedDocument installs a document fetched from the server.
func (s *DocumentStore) LoadSavedDocument(content, remoteID string, savedAt time.Time) {
	s.apply(CauseLoad, true, func(d *Document) bool {
		*d = Document{
			Content:          content,
			RemoteID:         remoteID,
			LastSavedAt:      savedAt,
			LastSavedContent: content,
		}
		return true
	})
	// The draft it replaced would otherwise come back on the next start.
	s.clearDraft()
}

// CreateTemporaryDocument starts an empty local-only document.
func (s *DocumentStore) CreateTemporaryDocument() {
	s.apply(CauseReset, true, func(d *Document) bool {
		*d = Document{IsTemporary: true}
		return true
	})
}

// Reset returns the container to its initial state.
func (s *DocumentStore) Reset() {
	s.CreateTemporaryDocument()
}

// SyncFromStorage applies content written by another process. It only takes
// effect while the local document is temporary, and is not written back.
func (s *DocumentStore) SyncFromStorage(content string, hasChanges bool) bool {
	return s.apply(CauseSync, false, func(d *Document) bool {
		if !d.IsTemporary {
			return false
		}
		if d.Content == content && d.HasUnsavedChanges == hasChanges {
			return false
		}
		d.Content = content
		d.HasUnsavedChanges = hasChanges
		return true
	})
}

// MarkSaved records a successful save of content. The document stays dirty
// when it was edited while the save was running.
func (s *DocumentStore) MarkSaved(content string, savedAt time.Time) {
	s.apply(CauseSave, true, func(d *Document) bool {
		d.LastSavedContent = content
		d.LastSavedAt = savedAt
		d.HasUnsavedChanges = d.Content != content
		return true
	})
}

// SetRemoteID attaches the id the server assigned to a persisted document.
func (s *DocumentStore) SetRemoteID(id string) {
	s.apply(CauseSave, false, func(d *Document) bool {
		if d.RemoteID == id {
			return false
		}
		d.RemoteID = id
		return true
	})
}

// Promote turns the document into a persisted one after it was created on
// the server with content.
func (s *DocumentStore) Promote(id, content string, savedAt time.Time) {
	var wasTemporary bool
	s.apply(CauseSave, false, func(d *Document) bool {
		wasTemporary = d.IsTemporary
		d.RemoteID = id
		d.IsTemporary = false
		d.LastSavedContent = content
		d.LastSavedAt = savedAt
		d.HasUnsavedChanges = d.Content != content
		return true
	})
	if wasTemporary {
		s.clearDraft()
	}
}

// clearDraft removes the temporary document from the local store.
func (s *DocumentStore) clearDraft() {
	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persist.Clear(ctx, StorageKey); err != nil {
		s.logger.Warn("clear local document failed", "err", err)
	}
}

// SetStorageError records an advisory storage problem; "" clears it.
func (s *DocumentStore) SetStorageError(msg string) {
	s.apply(CauseSync, false, func(d *Document) bool {
		if d.StorageError == msg {
			return false
		}
		d.StorageError = msg
		return true
	})
}

// Rehydrate restores a temporary document left in the local store by an
// earlier session. It reports whether anything was restored.
func (s *DocumentStore) Rehydrate(ctx context.Context) bool {
	if s.persist == nil {
		return false
	}
	env, ok, err := s.persist.Load(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("rehydrate document failed", "err", err)
		s.SetStorageError(storageMessage(err))
	}
	if !ok {
		return false
	}

	var p persisted
	if derr := env.Decode(&p); derr != nil {
		s.logger.Warn("stored document is unreadable", "err", derr)
		s.SetStorageError(storageMessage(derr))
		return false
	}
	if !p.IsTemporary || !env.Has("content") {
		return false
	}
	return s.apply(CauseLoad, false, func(d *Document) bool {
		if !d.IsTemporary {
			return false
		}
		d.Content = p.Content
		d.HasUnsavedChanges = p.HasUnsavedChanges
		return true
	})
}

// HandleStorageEvent validates a change notification from the shared store
// and applies it through SyncFromStorage. Writes made by this process and
// anything that is not a temporary document are ignored.
func (s *DocumentStore) HandleStorageEvent(raw []byte) bool {
	if len(raw) == 0 || s.persist == nil {
		return false
	}
	env, err := s.persist.Parse(raw)
	if err != nil && env.Fields == nil {
		s.logger.Debug("ignoring unreadable storage event", "err", err)
		return false
	}
	if origin, _ := env.Fields["origin"].(string); origin == s.origin {
		return false
	}
	if temp, _ := env.Fields["isTemporaryDocument"].(bool); !temp {
		return false
	}
	content, ok := env.Fields["content"].(string)
	if !ok {
		return false
	}
	hasChanges, _ := env.Fields["hasUnsavedChanges"].(bool)
	return s.SyncFromStorage(content, hasChanges)
}

// apply runs mutate under the lock. When mutate reports a change, observers
// are notified and, if write is set, the temporary subset is persisted.
func (s *DocumentStore) apply(cause Cause, write bool, mutate func(*Document) bool) bool {
	s.mu.Lock()
	if !mutate(&s.doc) {
		s.mu.Unlock()
		return false
	}
	doc := s.doc
	// Take the write slot before releasing the state lock so concurrent
	// mutations reach the store in the order they were applied.
	if write {
		s.persistMu.Lock()
	}
	s.mu.Unlock()

	if write {
		err := s.save(doc)
		s.persistMu.Unlock()
		s.recordStorageResult(doc, err)
	}
	s.notify(Change{Document: s.Snapshot(), Cause: cause})
	return true
}

func (s *DocumentStore) save(doc Document) error {
	if s.persist == nil || !doc.IsTemporary {
		return nil
	}
	env, err := storage.EnvelopeOf(persisted{
		Content:           doc.Content,
		IsTemporary:       doc.IsTemporary,
		HasUnsavedChanges: doc.HasUnsavedChanges,
		Origin:            s.origin,
	})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return s.persist.Save(ctx, StorageKey, env)
}

// recordStorageResult surfaces a failed write as an advisory error and
// clears an earlier one once a write succeeds.
func (s *DocumentStore) recordStorageResult(doc Document, err error) {
	if err != nil {
		s.logger.Warn("persist document failed", "err", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.doc.StorageError = storageMessage(err)
		return
	}
	if doc.StorageError != "" && s.doc.StorageError == doc.StorageError {
		s.doc.StorageError = ""
	}
}

func (s *DocumentStore) notify(change Change) {
	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func storageMessage(err error) string {
	return fmt.Sprintf("Storage error: %v", err)
}
