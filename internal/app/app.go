package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/autosave"
	"github.com/five82/editer/internal/config"
	"github.com/five82/editer/internal/docapi"
	"github.com/five82/editer/internal/loader"
	"github.com/five82/editer/internal/nav"
	"github.com/five82/editer/internal/notify"
	"github.com/five82/editer/internal/prefs"
	"github.com/five82/editer/internal/share"
	"github.com/five82/editer/internal/state"
	"github.com/five82/editer/internal/storage"
	"github.com/five82/editer/internal/ui"
)

// stopTimeout bounds how long shutdown waits for an in-flight save.
const stopTimeout = 5 * time.Second

// Options configure the editer application.
type Options struct {
	ConfigPath string
	EnvFile    string // empty uses ./.env when present
	ShareID    string // document to open; empty starts a draft
	Store      string // overrides the configured store backend
	APIURL     string // overrides the configured API base URL
	Stdout     io.Writer
}

// Run boots the editor until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Store != "" {
		if err := cfg.SetStore(opts.Store); err != nil {
			return err
		}
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	backend, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer closeBackend()

	client, err := docapi.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init document api client: %w", err)
	}

	c := wire(cfg, backend, client, logger, opts.ShareID)
	c.rehydrate(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.saver.Start()
	syncDone := StartSync(runCtx, c.docs, c.docStore, logger.WithPrefix("sync"), defaultResubscribeDelay)

	logger.Info("editer started",
		"store", cfg.Store,
		"api", cfg.APIURL,
		"share_id", opts.ShareID,
	)

	uiErr := ui.Run(ui.Options{
		Context:  runCtx,
		Docs:     c.docs,
		Settings: c.settings,
		Saver:    c.saver,
		Loader:   c.loader,
		Sharer:   c.sharer,
		Notes:    c.notes,
		Location: c.location,
		ShareID:  opts.ShareID,
	})

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := c.saver.Stop(stopCtx); err != nil {
		logger.Warn("autosave did not stop cleanly", "err", err)
	}
	cancel()
	<-syncDone

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	printSummary(stdout, c.docs.Snapshot(), c.sharer)

	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	return nil
}

// components holds everything the UI and the background loops share.
type components struct {
	docStore *storage.Store
	setStore *storage.Store
	docs     *state.DocumentStore
	settings *prefs.Store
	notes    *notify.Center
	location *nav.Location
	saver    *autosave.Coordinator
	loader   *loader.Loader
	sharer   *share.Sharer
}

func wire(cfg config.Config, backend storage.Backend, api docapi.DocumentService, logger *log.Logger, shareID string) *components {
	c := &components{
		docStore: storage.New(backend, "document", state.Migrations, storage.WithLogger(logger)),
		setStore: storage.New(backend, "settings", prefs.Migrations, storage.WithLogger(logger)),
		notes:    notify.NewCenter(),
		location: nav.NewLocation(shareID),
		sharer:   share.New(cfg.ShareBaseURL, share.SystemClipboard{}),
	}
	c.docs = state.NewDocumentStore(c.docStore, logger.WithPrefix("document"))
	c.settings = prefs.NewStore(c.setStore, logger.WithPrefix("settings"))
	c.saver = autosave.New(c.docs, api, autosave.Options{
		Delay:     cfg.AutosaveDelay,
		Navigator: c.location,
		Notifier:  c.notes,
		Logger:    logger.WithPrefix("autosave"),
	})
	c.loader = loader.New(c.docs, api, c.notes, logger.WithPrefix("loader"))
	return c
}

func (c *components) rehydrate(ctx context.Context) {
	c.settings.Rehydrate(ctx)
	c.docs.Rehydrate(ctx)
}

// newLogger writes to the configured log file; the terminal belongs to the
// editor while it runs.
func newLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "editer",
	})
	return logger, func() { _ = f.Close() }, nil
}

// openBackend builds the local store backend named by cfg.Store.
func openBackend(cfg config.Config, logger *log.Logger) (storage.Backend, func(), error) {
	nop := func() {}
	switch cfg.Store {
	case config.StoreMemory:
		return storage.NewMemoryBackend(), nop, nil
	case config.StoreRedis:
		b, err := storage.NewRedisBackend(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	case config.StoreFile, "":
		b, err := storage.NewFileBackend(cfg.DataDir, logger.WithPrefix("store"))
		if err != nil {
			return nil, nil, err
		}
		return b, nop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// printSummary tells the user where their text went once the editor closes.
func printSummary(w io.Writer, doc state.Document, sharer *share.Sharer) {
	switch {
	case doc.IsPersisted() && doc.RemoteID != "":
		link, err := sharer.Link(doc.RemoteID)
		if err != nil {
			return
		}
		if doc.HasUnsavedChanges {
			fmt.Fprintf(w, "Document %s has unsaved changes: %s\n", doc.RemoteID, link)
			return
		}
		fmt.Fprintf(w, "Document saved: %s\n", link)
	case doc.IsTemporary && doc.Content != "":
		fmt.Fprintln(w, "Draft kept locally. Run editer again to continue editing.")
	}
}
