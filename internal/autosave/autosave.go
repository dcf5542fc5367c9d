package autosave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/docapi"
	"github.com/five82/editer/internal/failure"
	"github.com/five82/editer/internal/nav"
	"github.com/five82/editer/internal/state"
)

// DefaultDelay is the quiet period after the last edit before saving.
const DefaultDelay = 700 * time.Millisecond

// ErrSaveInFlight is returned when a save is requested while one is running.
var ErrSaveInFlight = errors.New("autosave: save already in progress")

// Status is the coordinator's position in its save cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSaving
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	default:
		return "idle"
	}
}

// Navigator rewrites the current address in place.
type Navigator interface {
	Replace(path string)
}

// Notifier shows save outcomes to the user.
type Notifier interface {
	Success(msg string) int
	Error(msg string) int
}

// Options configures a Coordinator. Zero values pick defaults.
type Options struct {
	Delay     time.Duration
	Navigator Navigator
	Notifier  Notifier
	Logger    *log.Logger
}

// Coordinator saves the document a moment after the user stops typing.
// Temporary documents go to the local store, persisted ones to the API.
type Coordinator struct {
	docs     *state.DocumentStore
	api      docapi.DocumentService
	nav      Navigator
	notes    Notifier
	logger   *log.Logger
	debounce *Debouncer
	now      func() time.Time

	mu          sync.Mutex
	saving      bool
	done        chan struct{}
	lastErr     error
	unsubscribe func()
}

// New builds a Coordinator. Call Start to begin watching edits.
func New(docs *state.DocumentStore, api docapi.DocumentService, opts Options) *Coordinator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	c := &Coordinator{
		docs:   docs,
		api:    api,
		nav:    opts.Navigator,
		notes:  opts.Notifier,
		logger: opts.Logger,
		now:    time.Now,
	}
	c.debounce = NewDebouncer(opts.Delay, c.fire)
	return c
}

// Start subscribes to document changes. Calling it twice is a no-op.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.docs.Subscribe(c.onChange)
}

// Stop cancels a pending save and stops watching edits. A save already
// talking to the server is not cancelled; Stop waits for it until ctx ends.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.debounce.Cancel()

	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	done := c.done
	saving := c.saving
	c.mu.Unlock()

	if !saving || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight save: %w", ctx.Err())
	}
}

// Status reports whether a save is pending or running.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	saving := c.saving
	c.mu.Unlock()
	switch {
	case saving:
		return StatusSaving
	case c.debounce.Pending():
		return StatusPending
	default:
		return StatusIdle
	}
}

// LastError returns the error of the most recent save, nil after a success.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ManualSave saves immediately, subject to the same in-flight guard as the
// timer.
func (c *Coordinator) ManualSave(ctx context.Context) error {
	c.debounce.Cancel()
	return c.save(ctx, true)
}

// CreateOnlineDocument creates the current content on the server and turns
// the document into a persisted one. It returns the new share id.
func (c *Coordinator) CreateOnlineDocument(ctx context.Context) (string, error) {
	doc := c.docs.Snapshot()
	if doc.IsPersisted() && doc.RemoteID != "" {
		return doc.RemoteID, nil
	}
	if !c.begin() {
		return "", ErrSaveInFlight
	}
	c.debounce.Cancel()

	doc = c.docs.Snapshot()
	created, err := c.api.CreateDocument(ctx, doc.Content)
	if err != nil {
		f := failure.Classify(err, failure.OpSave)
		c.logger.Error("create online document failed", "kind", f.Kind, "err", err)
		c.notes.Error(f.Message)
		c.finish(doc.Content, f)
		return "", f
	}

	c.docs.Promote(created.ShareID, doc.Content, savedAt(created, c.now()))
	c.nav.Replace(nav.EditPath(created.ShareID))
	c.logger.Info("created online document", "share_id", created.ShareID)
	c.notes.Success("Document created online")
	c.finish(doc.Content, nil)
	return created.ShareID, nil
}

func (c *Coordinator) onChange(change state.Change) {
	if change.Cause != state.CauseEdit {
		return
	}
	doc := change.Document
	if doc.HasUnsavedChanges && doc.Content != doc.LastSavedContent {
		c.debounce.Schedule()
		return
	}
	c.debounce.Cancel()
	// Edited back to the saved text: nothing to send, but the flag must clear.
	if doc.HasUnsavedChanges && doc.Content == doc.LastSavedContent {
		c.docs.MarkSaved(doc.Content, doc.LastSavedAt)
	}
}

func (c *Coordinator) fire() {
	err := c.save(context.Background(), false)
	if errors.Is(err, ErrSaveInFlight) {
		c.logger.Debug("debounce fired during save, skipping")
	}
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saving {
		return false
	}
	c.saving = true
	c.done = make(chan struct{})
	return true
}

// finish clears the in-flight flag and re-arms the timer when the user kept
// typing while the save ran.
func (c *Coordinator) finish(sent string, err error) {
	c.mu.Lock()
	c.saving = false
	c.lastErr = err
	close(c.done)
	watching := c.unsubscribe != nil
	c.mu.Unlock()

	if err != nil || !watching {
		return
	}
	doc := c.docs.Snapshot()
	if doc.HasUnsavedChanges && doc.Content != sent && doc.Content != doc.LastSavedContent {
		c.debounce.Schedule()
	}
}

func (c *Coordinator) save(ctx context.Context, manual bool) error {
	if !c.begin() {
		return ErrSaveInFlight
	}

	// Read the content at fire time so the newest edit wins.
	doc := c.docs.Snapshot()
	if doc.Content == doc.LastSavedContent {
		if doc.HasUnsavedChanges {
			c.docs.MarkSaved(doc.Content, doc.LastSavedAt)
		}
		c.finish(doc.Content, nil)
		return nil
	}

	var err error
	switch {
	case doc.IsTemporary:
		c.docs.MarkSaved(doc.Content, c.now())
		c.logger.Debug("saved temporary document locally", "bytes", len(doc.Content))
		if manual {
			c.notes.Success("Saved locally")
		}
	case doc.RemoteID == "":
		err = c.create(ctx, doc.Content)
	default:
		err = c.update(ctx, doc.RemoteID, doc.Content)
	}

	if err != nil {
		f := failure.Classify(err, failure.OpSave)
		c.logger.Error("save failed", "kind", f.Kind, "share_id", doc.RemoteID, "err", err)
		c.notes.Error(f.Message)
		c.finish(doc.Content, f)
		return f
	}
	c.finish(doc.Content, nil)
	return nil
}

func (c *Coordinator) create(ctx context.Context, content string) error {
	created, err := c.api.CreateDocument(ctx, content)
	if err != nil {
		return err
	}
	c.docs.SetRemoteID(created.ShareID)
	c.nav.Replace(nav.EditPath(created.ShareID))
	c.docs.MarkSaved(content, savedAt(created, c.now()))
	c.logger.Info("created document", "share_id", created.ShareID)
	c.notes.Success("Document saved")
	return nil
}

func (c *Coordinator) update(ctx context.Context, id, content string) error {
	updated, err := c.api.UpdateDocument(ctx, id, content)
	if err != nil {
		return err
	}
	c.docs.MarkSaved(content, savedAt(updated, c.now()))
	c.logger.Debug("updated document", "share_id", id, "bytes", len(content))
	c.notes.Success("Document saved")
	return nil
}

func savedAt(doc *docapi.Document, fallback time.Time) time.Time {
	if doc == nil || doc.UpdatedAt.IsZero() {
		return fallback
	}
	return doc.UpdatedAt.Time
}

type nopNavigator struct{}

func (nopNavigator) Replace(string) {}

type nopNotifier struct{}

func (nopNotifier) Success(string) int { return 0 }
func (nopNotifier) Error(string) int   { return 0 }
